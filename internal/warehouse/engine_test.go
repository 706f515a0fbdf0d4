package warehouse_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pickWave/internal/warehouse"
)

// threeOrderInstance: order0 {0:2}, order1 {0:1, 1:3}, order2 {1:5};
// aisle0 {0:5}, aisle1 {1:10}; bounds [3,8].
func threeOrderInstance(t *testing.T) *warehouse.Instance {
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

func newEngine(t *testing.T, inst *warehouse.Instance) *warehouse.Engine {
	t.Helper()
	eng, err := warehouse.NewEngine(inst)
	require.NoError(t, err)
	return eng
}

func TestBuildWaveFromAisles_ThreeOrders(t *testing.T) {
	inst := threeOrderInstance(t)
	eng := newEngine(t, inst)

	wave, err := eng.BuildWaveFromAisles([]int{0, 1})
	require.NoError(t, err)

	// order2 would push the wave to 11 units, above the upper bound of 8.
	assert.Equal(t, []int{0, 1}, wave.Orders)
	assert.Equal(t, []int{0, 1}, wave.Aisles)
	assert.Equal(t, 6, warehouse.UnitsPicked(inst, wave.Orders))
	assert.InDelta(t, 3.0, warehouse.Efficiency(inst, wave), 1e-12)
	require.NoError(t, warehouse.CheckWave(inst, wave))

	assert.Equal(t, []warehouse.Pick{{Aisle: 0, Qty: 3}}, wave.Picks[0])
	assert.Equal(t, []warehouse.Pick{{Aisle: 1, Qty: 3}}, wave.Picks[1])
}

func TestBuildWaveFromAisles_SingleAisle(t *testing.T) {
	inst := threeOrderInstance(t)
	eng := newEngine(t, inst)

	wave, err := eng.BuildWaveFromAisles([]int{1})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, wave.Orders)
	assert.Equal(t, []int{1}, wave.Aisles)
	assert.InDelta(t, 5.0, warehouse.Efficiency(inst, wave), 1e-12)
}

func TestBuildWaveFromAisles_Rejections(t *testing.T) {
	inst := threeOrderInstance(t)
	eng := newEngine(t, inst)

	_, err := eng.BuildWaveFromAisles(nil)
	require.ErrorIs(t, err, warehouse.ErrInfeasible)
	assert.Equal(t, warehouse.ReasonEmptySelection, warehouse.ReasonOf(err))

	_, err = eng.BuildWaveFromAisles([]int{7})
	assert.Equal(t, warehouse.ReasonUnknownID, warehouse.ReasonOf(err))

	// aisle0 alone only serves order0: 2 units, below the lower bound.
	_, err = eng.BuildWaveFromAisles([]int{0})
	assert.Equal(t, warehouse.ReasonBounds, warehouse.ReasonOf(err))

	assert.Equal(t, 3, eng.Evaluations())
}

func TestBuildWaveFromAisles_DuplicateAislesCountOnce(t *testing.T) {
	inst := threeOrderInstance(t)
	eng := newEngine(t, inst)

	a, err := eng.BuildWaveFromAisles([]int{0, 1})
	require.NoError(t, err)
	b, err := eng.BuildWaveFromAisles([]int{1, 0, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, a.Key(), b.Key())
}

func TestAssignAisles_BestStockedFirst(t *testing.T) {
	inst, err := warehouse.NewInstance(
		[]warehouse.Order{{0: 1}},
		[]warehouse.Aisle{{0: 2}, {0: 7}, {0: 7}, {0: 1}},
		1,
		warehouse.WaveBounds{Lower: 0, Upper: 100},
	)
	require.NoError(t, err)
	eng := newEngine(t, inst)

	aisles, picks, err := eng.AssignAisles(map[int]int{0: 9})
	require.NoError(t, err)
	// Equal stock ties go to the lower aisle id.
	assert.Equal(t, []int{1, 2}, aisles)
	assert.Equal(t, []warehouse.Pick{{Aisle: 1, Qty: 7}, {Aisle: 2, Qty: 2}}, picks[0])

	_, _, err = eng.AssignAisles(map[int]int{0: 18})
	assert.Equal(t, warehouse.ReasonUnmetDemand, warehouse.ReasonOf(err))
}

func TestAssignAisles_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	inst := warehouse.RandomInstance(40, 25, 15, rng)
	eng := newEngine(t, inst)

	demand := map[int]int{}
	for item := 0; item < inst.NumItems; item += 2 {
		total := 0
		for _, s := range inst.StockingAisles(item) {
			total += s.Qty
		}
		if total > 0 {
			demand[item] = 1 + total/2
		}
	}

	first, _, err := eng.AssignAisles(demand)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, _, err := newEngine(t, inst).AssignAisles(demand)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestWaveForOrders(t *testing.T) {
	inst := threeOrderInstance(t)
	eng := newEngine(t, inst)

	wave, err := eng.WaveForOrders([]int{2, 0})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, wave.Orders)
	assert.Equal(t, []int{0, 1}, wave.Aisles)
	require.NoError(t, warehouse.CheckWave(inst, wave))

	_, err = eng.WaveForOrders(nil)
	assert.Equal(t, warehouse.ReasonEmptySelection, warehouse.ReasonOf(err))

	_, err = eng.WaveForOrders([]int{0})
	assert.Equal(t, warehouse.ReasonBounds, warehouse.ReasonOf(err))

	_, err = eng.WaveForOrders([]int{1, 1})
	assert.Equal(t, warehouse.ReasonUnknownID, warehouse.ReasonOf(err))
}

func TestWaveForOrders_UnmetDemand(t *testing.T) {
	inst, err := warehouse.NewInstance(
		[]warehouse.Order{{0: 4}, {0: 4}},
		[]warehouse.Aisle{{0: 5}},
		1,
		warehouse.WaveBounds{Lower: 1, Upper: 10},
	)
	require.NoError(t, err)

	_, err = newEngine(t, inst).WaveForOrders([]int{0, 1})
	assert.Equal(t, warehouse.ReasonUnmetDemand, warehouse.ReasonOf(err))
}

func TestWaveFromSelection(t *testing.T) {
	inst := threeOrderInstance(t)
	eng := newEngine(t, inst)

	wave, err := eng.WaveFromSelection([]int{2}, []int{1})
	require.NoError(t, err)
	assert.Equal(t, []warehouse.Pick{{Aisle: 1, Qty: 5}}, wave.Picks[1])

	_, err = eng.WaveFromSelection([]int{0, 2}, []int{1})
	assert.Equal(t, warehouse.ReasonUnmetDemand, warehouse.ReasonOf(err))
}

// Every wave accepted by the engine must satisfy coverage and bounds.
func TestAcceptedWavesAreFeasible(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		rng := rand.New(rand.NewSource(seed))
		inst := warehouse.RandomInstance(60, 30, 20, rng)
		eng := newEngine(t, inst)

		for trial := 0; trial < 200; trial++ {
			k := 1 + rng.Intn(inst.NumAisles())
			wave, err := eng.BuildWaveFromAisles(rng.Perm(inst.NumAisles())[:k])
			if err != nil {
				require.ErrorIs(t, err, warehouse.ErrInfeasible)
				continue
			}
			require.NoError(t, warehouse.CheckWave(inst, wave), "seed %d trial %d", seed, trial)
			assertPicksCoverDemand(t, inst, wave)
		}
	}
}

func assertPicksCoverDemand(t *testing.T, inst *warehouse.Instance, wave *warehouse.Wave) {
	t.Helper()
	demand := map[int]int{}
	for _, o := range wave.Orders {
		for item, qty := range inst.Orders[o] {
			demand[item] += qty
		}
	}
	for item, need := range demand {
		got := 0
		for _, p := range wave.Picks[item] {
			require.LessOrEqual(t, p.Qty, inst.Aisles[p.Aisle][item])
			require.Contains(t, wave.Aisles, p.Aisle)
			got += p.Qty
		}
		require.Equal(t, need, got, "item %d", item)
	}
}

func TestBoundsAboveTotalStock(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	orders := make([]warehouse.Order, 20)
	for i := range orders {
		orders[i] = warehouse.Order{i % 5: 1 + rng.Intn(4)}
	}
	inst, err := warehouse.NewInstance(
		orders,
		[]warehouse.Aisle{{0: 10, 1: 10}, {2: 10, 3: 10}, {4: 10}},
		5,
		warehouse.WaveBounds{Lower: 100, Upper: 200},
	)
	require.NoError(t, err)
	require.Equal(t, 50, inst.TotalStock())
	eng := newEngine(t, inst)

	for mask := 1; mask < 8; mask++ {
		var aisles []int
		for a := 0; a < 3; a++ {
			if mask&(1<<a) != 0 {
				aisles = append(aisles, a)
			}
		}
		_, err := eng.BuildWaveFromAisles(aisles)
		require.ErrorIs(t, err, warehouse.ErrInfeasible)
	}
}

func TestBuildWaveFromAisles_NoOrderFits(t *testing.T) {
	inst, err := warehouse.NewInstance(
		[]warehouse.Order{{0: 2}, {0: 3}},
		[]warehouse.Aisle{{0: 10}},
		1,
		warehouse.WaveBounds{Lower: 0, Upper: 1},
	)
	require.NoError(t, err)

	_, err = newEngine(t, inst).BuildWaveFromAisles([]int{0})
	require.ErrorIs(t, err, warehouse.ErrInfeasible)
	assert.Equal(t, warehouse.ReasonEmptySelection, warehouse.ReasonOf(err))
}
