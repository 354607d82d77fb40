package query

import (
	"math"
	"testing"
)

func TestCosine(t *testing.T) {
	cases := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 0}, []float64{1, 0}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposed", []float64{1, 0}, []float64{-1, 0}, -1},
		{"zero vector", []float64{0, 0}, []float64{1, 0}, 0},
		{"length mismatch", []float64{1}, []float64{1, 0}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Cosine(tc.a, tc.b); math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("Cosine = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMMRPicksMostRelevantFirst(t *testing.T) {
	query := []float64{1, 0}
	candidates := [][]float64{
		{0, 1},      // irrelevant
		{1, 0},      // exact match
		{0.9, 0.1},  // close
		{-1, 0},     // contradiction
	}
	got := MMR(query, candidates, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 picks, got %d", len(got))
	}
	if got[0] != 1 {
		t.Fatalf("first pick must be the exact match, got index %d", got[0])
	}
}

func TestMMRPenalizesRedundancy(t *testing.T) {
	query := []float64{1, 0, 0}
	candidates := [][]float64{
		{0.91, 0.4146, 0},  // best match
		{0.909, 0.4168, 0}, // near-duplicate of the best match
		{0.9, -0.4359, 0},  // equally relevant but far from the duplicate
	}
	got := MMR(query, candidates, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 picks, got %d", len(got))
	}
	if got[0] != 0 {
		t.Fatalf("first pick must be index 0, got %d", got[0])
	}
	if got[1] != 2 {
		t.Fatalf("second pick must prefer the distinct candidate, got %d", got[1])
	}
}

func TestMMRClampsK(t *testing.T) {
	query := []float64{1, 0}
	candidates := [][]float64{{1, 0}, {0, 1}}
	if got := MMR(query, candidates, 10); len(got) != 2 {
		t.Fatalf("k beyond candidate count must clamp, got %d picks", len(got))
	}
	if got := MMR(query, nil, 3); got != nil {
		t.Fatalf("no candidates must yield nil, got %v", got)
	}
	if got := MMR(query, candidates, 0); got != nil {
		t.Fatalf("k=0 must yield nil, got %v", got)
	}
}

func TestContradictions(t *testing.T) {
	query := []float64{1, 0}
	candidates := [][]float64{
		{1, 0},        // agrees
		{-0.5, 0.5},   // mildly contradicts
		{-1, 0},       // strongly contradicts
		{0, 1},        // orthogonal, not a contradiction
	}
	got := Contradictions(query, candidates, 0)
	if len(got) != 2 {
		t.Fatalf("expected 2 contradictions, got %v", got)
	}
	if got[0] != 2 || got[1] != 1 {
		t.Fatalf("expected strongest contradiction first, got %v", got)
	}
	if limited := Contradictions(query, candidates, 1); len(limited) != 1 || limited[0] != 2 {
		t.Fatalf("limit must keep the strongest, got %v", limited)
	}
}
