package opt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pickWave/internal/warehouse"
)

// ErrNoSolution reports that a strategy finished without any feasible wave.
// It is distinct from a wave whose efficiency is 0.
var ErrNoSolution = errors.New("no solution found")

type Optimizer interface {
	Solve(ctx context.Context, inst *warehouse.Instance) (Result, error)
}

type Result struct {
	RunID       string
	Strategy    string
	Wave        *warehouse.Wave
	Efficiency  float64
	Evaluations int
	Iterations  int
	Duration    time.Duration
	Meta        map[string]any
}

// Found reports whether the result carries a wave.
func (r Result) Found() bool { return r.Wave != nil }

// NoSolution wraps ErrNoSolution with the strategy name.
func NoSolution(strategy string) error {
	return fmt.Errorf("%s: %w", strategy, ErrNoSolution)
}

func NewRunID() string { return uuid.NewString() }

// SelectBest picks the result with the highest efficiency among those that
// found a wave. Ties keep the earliest result. ok is false when none found one.
func SelectBest(results []Result) (best Result, ok bool) {
	for _, r := range results {
		if !r.Found() {
			continue
		}
		if !ok || r.Efficiency > best.Efficiency {
			best, ok = r, true
		}
	}
	return best, ok
}
