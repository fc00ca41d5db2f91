// Package testutil provides shared test infrastructure for the simulation kernel.
// It consolidates the MRG32k3a golden reference vectors and assertion helpers
// used across the sim/ test packages.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// GoldenDataset represents the structure of testdata/rng_golden.json.
// The values were produced by an independent implementation of L'Ecuyer's
// RngStreams package and must match bit for bit.
type GoldenDataset struct {
	Generator string         `json:"generator"`
	BaseSeed  [6]uint64      `json:"base_seed"`
	Streams   []GoldenStream `json:"streams"`
}

// GoldenStream holds the reference output of one provider stream.
type GoldenStream struct {
	Stream     int       `json:"stream"`
	Seed       [6]uint64 `json:"seed"`
	FirstDraws []float64 `json:"first_draws"`
	Substream2 []float64 `json:"substream_2"`
	Substream3 []float64 `json:"substream_3"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from sim/internal/testutil/ to repo root testdata/
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "rng_golden.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}
	if len(dataset.Streams) == 0 {
		t.Fatal("Golden dataset has no streams")
	}

	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertBitIdentical fails unless every element of got has exactly the bits of want.
func AssertBitIdentical(t *testing.T, name string, want, got []float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("%s: length %d, want %d", name, len(got), len(want))
	}
	for i := range want {
		if math.Float64bits(want[i]) != math.Float64bits(got[i]) {
			t.Errorf("%s[%d]: got %v, want %v", name, i, got[i], want[i])
		}
	}
}
