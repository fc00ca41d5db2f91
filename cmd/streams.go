package cmd

import (
	"fmt"
	"io"

	"github.com/inference-sim/simkernel/sim/rng"
)

// StreamsRequest selects the draws `simkernel streams` prints.
type StreamsRequest struct {
	Stream     int
	Substream  int
	Count      int
	Antithetic bool
	Seed       []uint64
}

// StreamDraws is the output of `simkernel streams`.
type StreamDraws struct {
	Stream     int       `json:"stream"`
	Substream  int       `json:"substream"`
	Antithetic bool      `json:"antithetic"`
	Seed       [6]uint64 `json:"seed"`
	Draws      []float64 `json:"draws"`
}

// DrawStream returns the first Count uniforms of the requested stream position.
func DrawStream(req StreamsRequest) (*StreamDraws, error) {
	if req.Count < 0 {
		return nil, fmt.Errorf("count must be >= 0, got %d", req.Count)
	}
	seed := rng.DefaultSeed
	switch len(req.Seed) {
	case 0:
	case 6:
		copy(seed[:], req.Seed)
	default:
		return nil, fmt.Errorf("%w: seed needs 6 components, got %d", rng.ErrInvalidSeed, len(req.Seed))
	}
	p, err := rng.NewProviderWithSeed(seed)
	if err != nil {
		return nil, err
	}
	if err := p.Position(req.Substream, req.Antithetic); err != nil {
		return nil, err
	}
	s, err := p.Stream(req.Stream)
	if err != nil {
		return nil, err
	}
	out := &StreamDraws{
		Stream:     req.Stream,
		Substream:  req.Substream,
		Antithetic: req.Antithetic,
		Seed:       s.InitialSeed(),
		Draws:      make([]float64, req.Count),
	}
	for i := range out.Draws {
		out.Draws[i] = s.RandU01()
	}
	return out, nil
}

// WriteDraws prints draws as JSON or one value per line with full precision.
func WriteDraws(w io.Writer, d *StreamDraws, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}
	for _, u := range d.Draws {
		if _, err := fmt.Fprintf(w, "%.17g\n", u); err != nil {
			return err
		}
	}
	return nil
}
