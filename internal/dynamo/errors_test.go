package dynamo

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
)

func TestSimulationError(t *testing.T) {
	err := &SimulationError{Step: 150, Time: 1.5, ID: 7, Wrapped: ErrInvalidState}
	expected := "step 150 (t=1.5000) object 7: dynamo: invalid state (NaN or Inf detected)"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}

	wrapped := fmt.Errorf("run: %w", err)
	if !errors.Is(wrapped, ErrInvalidState) {
		t.Error("expected errors.Is to see through SimulationError")
	}

	var simErr *SimulationError
	if !errors.As(wrapped, &simErr) || simErr.ID != 7 {
		t.Error("expected errors.As to recover SimulationError")
	}
}

func TestParallelFor(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		minChunk int
		workers  int
	}{
		{"serial small", 10, 64, 4},
		{"single worker", 1000, 10, 1},
		{"fan out", 1000, 10, 4},
		{"uneven", 1003, 7, 3},
		{"auto workers", 500, 16, 0},
		{"empty", 0, 1, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen := make([]int32, tt.n)
			ParallelFor(tt.n, tt.minChunk, tt.workers, func(start, end int) {
				for i := start; i < end; i++ {
					atomic.AddInt32(&seen[i], 1)
				}
			})
			for i, c := range seen {
				if c != 1 {
					t.Fatalf("index %d visited %d times", i, c)
				}
			}
		})
	}
}
