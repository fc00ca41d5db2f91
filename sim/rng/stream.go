package rng

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSeed is returned when a seed lies outside the generator's valid range.
var ErrInvalidSeed = errors.New("rng: invalid seed")

// DefaultSeed is the documented package seed. Two providers built from it hand out
// bit-identical streams.
var DefaultSeed = [6]uint64{12345, 12345, 12345, 12345, 12345, 12345}

// Stream is one MRG32k3a random number stream, partitioned into sub-streams of
// length 2^76. A Stream is not safe for concurrent use.
type Stream struct {
	number     int // provider-relative identity, 0 for free-standing streams
	initial    [6]uint64
	substart   [6]uint64
	state      [6]uint64
	substream  int // 1-based index of the current sub-stream
	antithetic bool
}

// CheckSeed validates a 6-word MRG32k3a seed.
func CheckSeed(seed [6]uint64) error {
	for i := 0; i < 3; i++ {
		if seed[i] >= m1 {
			return fmt.Errorf("%w: seed[%d]=%d must be < %d", ErrInvalidSeed, i, seed[i], m1)
		}
	}
	for i := 3; i < 6; i++ {
		if seed[i] >= m2 {
			return fmt.Errorf("%w: seed[%d]=%d must be < %d", ErrInvalidSeed, i, seed[i], m2)
		}
	}
	if seed[0] == 0 && seed[1] == 0 && seed[2] == 0 {
		return fmt.Errorf("%w: first three words are all zero", ErrInvalidSeed)
	}
	if seed[3] == 0 && seed[4] == 0 && seed[5] == 0 {
		return fmt.Errorf("%w: last three words are all zero", ErrInvalidSeed)
	}
	return nil
}

// NewStream creates a free-standing stream starting at seed.
func NewStream(seed [6]uint64) (*Stream, error) {
	if err := CheckSeed(seed); err != nil {
		return nil, err
	}
	return newStream(0, seed), nil
}

func newStream(number int, seed [6]uint64) *Stream {
	return &Stream{
		number:    number,
		initial:   seed,
		substart:  seed,
		state:     seed,
		substream: 1,
	}
}

// RandU01 returns the next uniform in the open interval (0,1).
// With the antithetic option set the value is 1-u; the state advances the same way.
func (s *Stream) RandU01() float64 {
	u := step(&s.state)
	if s.antithetic {
		return 1 - u
	}
	return u
}

// RandInt returns a uniform integer in [i, j] from a single draw.
func (s *Stream) RandInt(i, j int) int {
	if j < i {
		i, j = j, i
	}
	return i + int(math.Floor(s.RandU01()*float64(j-i+1)))
}

// Uint64 assembles 64 bits from two consecutive draws, so a Stream satisfies
// math/rand/v2.Source.
func (s *Stream) Uint64() uint64 {
	hi := uint64(s.RandU01() * (1 << 32))
	lo := uint64(s.RandU01() * (1 << 32))
	return hi<<32 | lo
}

// ResetStartStream returns the stream to the seed it was created with.
func (s *Stream) ResetStartStream() {
	s.substart = s.initial
	s.state = s.initial
	s.substream = 1
}

// ResetStartSubstream returns the stream to the start of its current sub-stream.
func (s *Stream) ResetStartSubstream() {
	s.state = s.substart
}

// AdvanceToNextSubstream jumps 2^76 steps past the start of the current sub-stream.
func (s *Stream) AdvanceToNextSubstream() {
	s.substart = jump(s.substart, &a1p76, &a2p76)
	s.state = s.substart
	s.substream++
}

// SetAntithetic toggles the 1-u output transform.
func (s *Stream) SetAntithetic(flag bool) {
	s.antithetic = flag
}

// Antithetic reports whether the stream returns mirrored draws.
func (s *Stream) Antithetic() bool {
	return s.antithetic
}

// Clone returns a stream with the same state, flags and identity; both produce
// the same future output.
func (s *Stream) Clone() *Stream {
	c := *s
	return &c
}

// NewAntitheticInstance clones the stream and flips the antithetic option.
func (s *Stream) NewAntitheticInstance() *Stream {
	c := s.Clone()
	c.antithetic = !s.antithetic
	return c
}

// Number returns the provider-relative stream number (0 if free-standing).
func (s *Stream) Number() int {
	return s.number
}

// SubstreamIndex returns the 1-based index of the current sub-stream.
func (s *Stream) SubstreamIndex() int {
	return s.substream
}

// State returns the current 6-word generator state.
func (s *Stream) State() [6]uint64 {
	return s.state
}

// InitialSeed returns the seed the stream was created with.
func (s *Stream) InitialSeed() [6]uint64 {
	return s.initial
}

func (s *Stream) String() string {
	return fmt.Sprintf("Stream#%d(substream=%d, antithetic=%t)", s.number, s.substream, s.antithetic)
}
