package replication

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/simkernel/sim/rng"
)

func TestMode_Position(t *testing.T) {
	tests := []struct {
		mode     Mode
		rep      int
		wantSub  int
		wantAnti bool
	}{
		{ModeIndependent, 1, 1, false},
		{ModeIndependent, 7, 7, false},
		{ModeCommonRandomNumbers, 1, 1, false},
		{ModeCommonRandomNumbers, 9, 1, false},
		{ModeAntithetic, 1, 1, false},
		{ModeAntithetic, 2, 1, true},
		{ModeAntithetic, 3, 2, false},
		{ModeAntithetic, 6, 3, true},
	}
	for _, tt := range tests {
		sub, anti := tt.mode.Position(tt.rep)
		assert.Equal(t, tt.wantSub, sub, "%s rep %d", tt.mode, tt.rep)
		assert.Equal(t, tt.wantAnti, anti, "%s rep %d", tt.mode, tt.rep)
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"":                      ModeIndependent,
		"independent":           ModeIndependent,
		"CRN":                   ModeCommonRandomNumbers,
		"common-random-numbers": ModeCommonRandomNumbers,
		" antithetic ":          ModeAntithetic,
	} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseMode("latin-hypercube")
	assert.True(t, errors.Is(err, ErrInvalidOptions))
}

func TestMode_MarshalText(t *testing.T) {
	b, err := ModeAntithetic.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "antithetic", string(b))
	assert.Equal(t, "Mode(9)", Mode(9).String())
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"zero replications", Options{Replications: 0, Length: 10}},
		{"odd antithetic", Options{Replications: 5, Length: 10, Mode: ModeAntithetic}},
		{"unknown mode", Options{Replications: 1, Length: 10, Mode: Mode(7)}},
		{"negative workers", Options{Replications: 1, Length: 10, Workers: -1}},
		{"zero length", Options{Replications: 1, Length: 0}},
		{"NaN length", Options{Replications: 1, Length: math.NaN()}},
		{"warm-up past length", Options{Replications: 1, Length: 10, WarmUp: 10}},
		{"negative warm-up", Options{Replications: 1, Length: 10, WarmUp: -1}},
		{"invalid seed", Options{Replications: 1, Length: 10, Seed: [6]uint64{1, 1, 1, 0, 0, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			assert.True(t, errors.Is(err, ErrInvalidOptions), "got %v", err)
		})
	}
}

func TestOptions_Defaults(t *testing.T) {
	opts := DefaultOptions()

	require.NoError(t, opts.Validate())
	assert.Equal(t, rng.DefaultSeed, opts.BaseSeed())
	assert.False(t, opts.ExecutiveConfig().Bounded())

	opts.Seed = [6]uint64{1, 2, 3, 4, 5, 6}
	assert.Equal(t, opts.Seed, opts.BaseSeed())
}
