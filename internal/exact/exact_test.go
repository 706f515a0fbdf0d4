package exact_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pickWave/internal/exact"
	"pickWave/internal/grasp"
	"pickWave/internal/opt"
	"pickWave/internal/warehouse"
)

func threeOrders(t *testing.T) *warehouse.Instance {
	t.Helper()
	inst, err := warehouse.NewInstance(
		[]warehouse.Order{{0: 2}, {0: 1, 1: 3}, {1: 5}},
		[]warehouse.Aisle{{0: 5}, {1: 10}},
		2,
		warehouse.WaveBounds{Lower: 3, Upper: 8},
	)
	require.NoError(t, err)
	return inst
}

func newSolver(t *testing.T, cfg exact.Config) *exact.Solver {
	t.Helper()
	s, err := exact.New(cfg)
	require.NoError(t, err)
	return s
}

// bruteForce проверяет каждую пару (заказы, проходы) через CheckWave.
func bruteForce(inst *warehouse.Instance) (float64, bool) {
	best, found := 0.0, false
	for om := 1; om < 1<<inst.NumOrders(); om++ {
		for am := 1; am < 1<<inst.NumAisles(); am++ {
			w := warehouse.NewWave(ids(om), ids(am), nil)
			if warehouse.CheckWave(inst, w) != nil {
				continue
			}
			if eff := warehouse.Efficiency(inst, w); !found || eff > best {
				best, found = eff, true
			}
		}
	}
	return best, found
}

func ids(mask int) []int {
	var out []int
	for i := 0; mask != 0; i, mask = i+1, mask>>1 {
		if mask&1 != 0 {
			out = append(out, i)
		}
	}
	return out
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, exact.DefaultConfig().Validate())

	for _, cfg := range []exact.Config{
		{MaxAisles: 0, MaxOrders: 10},
		{MaxAisles: 10, MaxOrders: 31},
		{MaxAisles: 10, MaxOrders: 10, TimeLimit: -time.Second},
	} {
		assert.Error(t, cfg.Validate(), "%+v", cfg)
	}
}

func TestSolve_ThreeOrders(t *testing.T) {
	inst := threeOrders(t)
	res, err := newSolver(t, exact.DefaultConfig()).Solve(context.Background(), inst)
	require.NoError(t, err)

	assert.Equal(t, exact.Strategy, res.Strategy)
	assert.InDelta(t, 5.0, res.Efficiency, 1e-12)
	assert.Equal(t, []int{2}, res.Wave.Orders)
	assert.Equal(t, []int{1}, res.Wave.Aisles)
	assert.Equal(t, []warehouse.Pick{{Aisle: 1, Qty: 5}}, res.Wave.Picks[1])
	require.NoError(t, warehouse.CheckWave(inst, res.Wave))
}

func TestSolve_MatchesBruteForce(t *testing.T) {
	for seed := int64(1); seed <= 8; seed++ {
		inst := warehouse.RandomInstance(7, 5, 4, rand.New(rand.NewSource(seed)))
		want, found := bruteForce(inst)

		res, err := newSolver(t, exact.DefaultConfig()).Solve(context.Background(), inst)
		if !found {
			require.ErrorIs(t, err, opt.ErrNoSolution, "seed %d", seed)
			continue
		}
		require.NoError(t, err, "seed %d", seed)
		assert.InDelta(t, want, res.Efficiency, 1e-12, "seed %d", seed)
		require.NoError(t, warehouse.CheckWave(inst, res.Wave), "seed %d", seed)
		assert.InDelta(t, res.Efficiency, warehouse.Efficiency(inst, res.Wave), 1e-12)
	}
}

func TestSolve_NotWorseThanGRASP(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		inst := warehouse.RandomInstance(12, 8, 6, rand.New(rand.NewSource(seed)))

		cfg := grasp.DefaultConfig()
		cfg.Workers = 1
		cfg.Iterations = 20
		g, err := grasp.New(cfg, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		gr, gerr := g.Solve(context.Background(), inst)

		ex, xerr := newSolver(t, exact.DefaultConfig()).Solve(context.Background(), inst)
		if gerr != nil {
			continue
		}
		require.NoError(t, xerr, "seed %d", seed)
		assert.GreaterOrEqual(t, ex.Efficiency, gr.Efficiency-1e-12, "seed %d", seed)
	}
}

func TestSolve_TooLarge(t *testing.T) {
	inst := warehouse.RandomInstance(40, 10, 6, rand.New(rand.NewSource(1)))
	res, err := newSolver(t, exact.DefaultConfig()).Solve(context.Background(), inst)
	require.Error(t, err)
	assert.True(t, errors.Is(err, opt.ErrNoSolution))
	assert.False(t, res.Found())
	assert.Equal(t, "too_large", res.Meta["reason"])
}

func TestSolve_NoFeasibleWave(t *testing.T) {
	inst, err := warehouse.NewInstance(
		[]warehouse.Order{{0: 30}, {1: 30}, {2: 40}},
		[]warehouse.Aisle{{0: 10, 1: 10}, {2: 30}},
		3,
		warehouse.WaveBounds{Lower: 100, Upper: 200},
	)
	require.NoError(t, err)

	res, err := newSolver(t, exact.DefaultConfig()).Solve(context.Background(), inst)
	require.ErrorIs(t, err, opt.ErrNoSolution)
	assert.NotContains(t, res.Meta, "stopped")
}

func TestSolve_CancelledIsNoSolution(t *testing.T) {
	inst := threeOrders(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newSolver(t, exact.DefaultConfig()).Solve(ctx, inst)
	require.ErrorIs(t, err, opt.ErrNoSolution)
	assert.Equal(t, "context", res.Meta["stopped"])
	assert.False(t, res.Found())
}
