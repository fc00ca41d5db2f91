package rng

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ErrStreamNumber is returned for stream numbers below 1.
var ErrStreamNumber = errors.New("rng: stream number must be >= 1")

// DefaultWarningLimit is the materialized-stream count past which the provider warns.
const DefaultWarningLimit = 5000

// Provider hands out a numbered sequence of independent streams derived from a
// base seed. Stream k starts 2^127*(k-1) steps after the base seed, so "stream #3"
// is the same for every provider built from the same seed, no matter the order in
// which streams are requested.
//
// Thread-safety: NOT thread-safe. Give each concurrently running replication its
// own Provider.
type Provider struct {
	baseSeed     [6]uint64
	nextSeed     [6]uint64
	streams      []*Stream // streams[i] has number i+1
	warningLimit int
	warned       bool

	// replication positioning applied to existing and future streams
	substream  int
	antithetic bool
}

// NewProvider creates a provider from DefaultSeed.
func NewProvider() *Provider {
	p, _ := NewProviderWithSeed(DefaultSeed)
	return p
}

// NewProviderWithSeed creates a provider from a caller-supplied base seed.
func NewProviderWithSeed(seed [6]uint64) (*Provider, error) {
	if err := CheckSeed(seed); err != nil {
		return nil, err
	}
	return &Provider{
		baseSeed:     seed,
		nextSeed:     seed,
		warningLimit: DefaultWarningLimit,
		substream:    1,
	}, nil
}

// NextStream materializes and returns the next stream in the sequence.
func (p *Provider) NextStream() *Stream {
	s := newStream(len(p.streams)+1, p.nextSeed)
	p.nextSeed = jump(p.nextSeed, &a1p127, &a2p127)
	p.position(s)
	p.streams = append(p.streams, s)

	if !p.warned && p.warningLimit > 0 && len(p.streams) > p.warningLimit {
		p.warned = true
		logrus.Warnf("rng: %d streams materialized (warning limit %d); check for a stream allocated per event or entity",
			len(p.streams), p.warningLimit)
	}
	return s
}

// Stream returns stream number i (1-based), materializing streams up to i as needed.
// Repeated calls return the same *Stream.
func (p *Provider) Stream(i int) (*Stream, error) {
	if i < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrStreamNumber, i)
	}
	for len(p.streams) < i {
		p.NextStream()
	}
	return p.streams[i-1], nil
}

// DefaultStream returns stream number 1.
func (p *Provider) DefaultStream() *Stream {
	s, _ := p.Stream(1)
	return s
}

// StreamNumber returns the number of s within this provider, or 0 if s was not
// produced by it.
func (p *Provider) StreamNumber(s *Stream) int {
	if s == nil || s.number < 1 || s.number > len(p.streams) || p.streams[s.number-1] != s {
		return 0
	}
	return s.number
}

// Len returns the number of materialized streams.
func (p *Provider) Len() int {
	return len(p.streams)
}

// ResetSequence forgets every materialized stream and restarts the sequence at
// the base seed.
func (p *Provider) ResetSequence() {
	p.streams = nil
	p.nextSeed = p.baseSeed
	p.warned = false
	p.substream = 1
	p.antithetic = false
}

// ResetAllToStart resets every materialized stream to its initial seed.
func (p *Provider) ResetAllToStart() {
	for _, s := range p.streams {
		s.ResetStartStream()
	}
}

// ResetAllToStartSubstream resets every materialized stream to the start of its
// current sub-stream.
func (p *Provider) ResetAllToStartSubstream() {
	for _, s := range p.streams {
		s.ResetStartSubstream()
	}
}

// AdvanceAllToNextSubstream advances every materialized stream to its next sub-stream.
func (p *Provider) AdvanceAllToNextSubstream() {
	for _, s := range p.streams {
		s.AdvanceToNextSubstream()
	}
}

// SetAllAntithetic sets the antithetic option on every materialized stream.
func (p *Provider) SetAllAntithetic(flag bool) {
	for _, s := range p.streams {
		s.SetAntithetic(flag)
	}
}

// Position places every stream, including ones materialized later, at the start
// of sub-stream k (1-based) with the given antithetic option. The resulting
// state depends only on (k, antithetic), never on draws taken before the call.
func (p *Provider) Position(k int, antithetic bool) error {
	if k < 1 {
		return fmt.Errorf("rng: sub-stream index must be >= 1, got %d", k)
	}
	p.substream = k
	p.antithetic = antithetic
	for _, s := range p.streams {
		p.position(s)
	}
	return nil
}

func (p *Provider) position(s *Stream) {
	s.ResetStartStream()
	for s.substream < p.substream {
		s.AdvanceToNextSubstream()
	}
	s.SetAntithetic(p.antithetic)
}

// SetWarningLimit changes the materialized-stream warning threshold (<= 0 disables it).
func (p *Provider) SetWarningLimit(limit int) {
	p.warningLimit = limit
}

// BaseSeed returns the seed stream #1 starts from.
func (p *Provider) BaseSeed() [6]uint64 {
	return p.baseSeed
}
