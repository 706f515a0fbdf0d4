package swarm

import (
	"fmt"
	"math/rand"
	"sync"

	"pickWave/internal/warehouse"
)

var errOutOfBounds = fmt.Errorf("%w: mutated selection outside wave bounds", warehouse.ErrInfeasible)

// particle описывает одну частицу популяции.
// Скорости нет: частица меняется только случайной мутацией своего выбора заказов.
type particle struct {
	rng *rand.Rand

	// sel — текущий выбор заказов, units — его суммарное число единиц
	sel   []bool
	units int

	// wave, eff — текущее допустимое состояние
	wave *warehouse.Wave
	eff  float64

	// bestWave, bestEff — лучшее состояние частицы за всё время
	bestWave *warehouse.Wave
	bestEff  float64

	// Вспомогательные буферы
	scratch []bool
	ids     []int
}

func newParticle(rng *rand.Rand, sel []bool, units int, wave *warehouse.Wave, eff float64) *particle {
	return &particle{
		rng:      rng,
		sel:      sel,
		units:    units,
		wave:     wave,
		eff:      eff,
		bestWave: wave,
		bestEff:  eff,
		scratch:  make([]bool, len(sel)),
		ids:      make([]int, 0, len(sel)),
	}
}

// seedSelection перемешивает заказы и жадно набирает их, пропуская заказы,
// выводящие сумму за верхнюю границу, до достижения нижней границы.
// ok == false, если нижняя граница не достигнута.
func seedSelection(inst *warehouse.Instance, rng *rand.Rand) (sel []bool, units int, ok bool) {
	sel = make([]bool, inst.NumOrders())
	ub, lb := inst.Bounds.Upper, inst.Bounds.Lower
	for _, o := range rng.Perm(inst.NumOrders()) {
		u := inst.OrderUnits(o)
		if units+u > ub {
			continue
		}
		sel[o] = true
		units += u
		if units >= lb {
			return sel, units, true
		}
	}
	return nil, 0, false
}

// selected возвращает номера выбранных заказов в буфере ids.
func selected(sel []bool, ids []int) []int {
	ids = ids[:0]
	for o, in := range sel {
		if in {
			ids = append(ids, o)
		}
	}
	return ids
}

// mutate инвертирует каждый заказ с вероятностью rate и принимает результат,
// только если он в границах волны и проходит полную проверку допустимости.
// Возвращает ошибку недопустимости, если мутация отброшена; состояние при этом не меняется.
func (p *particle) mutate(eng *warehouse.Engine, rate float64) error {
	inst := eng.Instance()

	copy(p.scratch, p.sel)
	units := p.units
	for o := range p.scratch {
		if p.rng.Float64() >= rate {
			continue
		}
		if p.scratch[o] {
			units -= inst.OrderUnits(o)
		} else {
			units += inst.OrderUnits(o)
		}
		p.scratch[o] = !p.scratch[o]
	}

	if !inst.Bounds.Contains(units) {
		return errOutOfBounds
	}

	p.ids = selected(p.scratch, p.ids)
	wave, err := eng.WaveForOrders(p.ids)
	if err != nil {
		return err
	}

	p.sel, p.scratch = p.scratch, p.sel
	p.units = units
	p.wave = wave
	p.eff = warehouse.Efficiency(inst, wave)
	if p.eff > p.bestEff {
		p.bestWave, p.bestEff = wave, p.eff
	}
	return nil
}

// globalBest — единственное разделяемое между потоками состояние.
type globalBest struct {
	mu   sync.Mutex
	wave *warehouse.Wave
	eff  float64
}

// offer принимает волну, если она первая или строго лучше текущей.
func (g *globalBest) offer(wave *warehouse.Wave, eff float64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.wave == nil || eff > g.eff {
		g.wave, g.eff = wave, eff
		return true
	}
	return false
}

func (g *globalBest) get() (*warehouse.Wave, float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.wave, g.eff
}
