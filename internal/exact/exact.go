package exact

import (
	"context"
	"fmt"
	"math/bits"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"pickWave/internal/logging"
	"pickWave/internal/metrics"
	"pickWave/internal/opt"
	"pickWave/internal/warehouse"
)

const Strategy = "EXACT"

// checkEvery — период проверки дедлайна в циклах перебора
const checkEvery = 1024

// Solver — точный перебор для небольших экземпляров: все подмножества проходов
// против всех допустимых по границам подмножеств заказов.
type Solver struct {
	Cfg Config
	Log logrus.FieldLogger
}

func New(cfg Config) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Solver{Cfg: cfg}, nil
}

func (s *Solver) WithLogger(l logrus.FieldLogger) *Solver {
	s.Log = l
	return s
}

// need — потребность подмножества заказов по одному товару
type need struct {
	item int
	qty  int
}

// candidate — подмножество заказов с суммой единиц в границах волны
type candidate struct {
	mask   uint64
	units  int
	demand []need
}

// Solve возвращает оптимальную волну или ErrNoSolution, если экземпляр превышает
// ограничения перебора, время истекло или допустимой волны нет.
func (s *Solver) Solve(ctx context.Context, inst *warehouse.Instance) (opt.Result, error) {
	start := time.Now()

	// Валидация конфигурации
	if err := inst.Validate(); err != nil {
		return opt.Result{}, err
	}
	if err := s.Cfg.Validate(); err != nil {
		return opt.Result{}, err
	}

	runID := opt.NewRunID()
	log := logging.OrDiscard(s.Log).WithFields(logrus.Fields{
		"strategy": Strategy,
		"run_id":   runID,
	})
	met := metrics.For(Strategy)

	res := opt.Result{
		RunID:    runID,
		Strategy: Strategy,
		Meta: map[string]any{
			"max_aisles": s.Cfg.MaxAisles,
			"max_orders": s.Cfg.MaxOrders,
		},
	}
	finish := func(err error) (opt.Result, error) {
		res.Duration = time.Since(start)
		met.Finish(res.Duration, res.Efficiency, res.Found())
		return res, err
	}

	if inst.NumAisles() > s.Cfg.MaxAisles || inst.NumOrders() > s.Cfg.MaxOrders {
		res.Meta["reason"] = "too_large"
		log.WithFields(logrus.Fields{
			"orders": inst.NumOrders(),
			"aisles": inst.NumAisles(),
		}).Warn("экземпляр превышает ограничения точного перебора")
		return finish(fmt.Errorf("%w (заказов %d, проходов %d)", opt.NoSolution(Strategy), inst.NumOrders(), inst.NumAisles()))
	}

	if s.Cfg.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Cfg.TimeLimit)
		defer cancel()
	}

	cands, err := s.candidates(ctx, inst)
	if err != nil {
		res.Meta["stopped"] = "context"
		log.Warn("время истекло при построении подмножеств заказов")
		return finish(opt.NoSolution(Strategy))
	}
	res.Meta["candidates"] = len(cands)

	bestOrders, bestAisles, bestEff, stats, err := search(ctx, inst, cands, met)
	res.Evaluations = stats.checks
	res.Iterations = stats.masks
	res.Meta["pruned"] = stats.pruned
	if err != nil {
		// Прерванный перебор не гарантирует оптимальности
		res.Meta["stopped"] = "context"
		log.WithField("aisle_masks", stats.masks).Warn("время точного перебора истекло")
		return finish(opt.NoSolution(Strategy))
	}
	if bestOrders == 0 {
		log.Info("допустимая волна не существует")
		return finish(opt.NoSolution(Strategy))
	}

	eng, err := warehouse.NewEngine(inst)
	if err != nil {
		return opt.Result{}, err
	}
	wave, err := eng.WaveFromSelection(maskIDs(bestOrders), maskIDs(bestAisles))
	if err != nil {
		log.WithError(err).Error("оптимальный выбор не прошёл проверку")
		return finish(fmt.Errorf("%w: %v", opt.NoSolution(Strategy), err))
	}

	res.Wave = wave
	res.Efficiency = bestEff
	log.WithFields(logrus.Fields{
		"efficiency": bestEff,
		"orders":     len(wave.Orders),
		"aisles":     len(wave.Aisles),
		"candidates": len(cands),
	}).Info("точный перебор завершён")
	return finish(nil)
}

// candidates перечисляет подмножества заказов с суммой единиц в границах волны,
// по убыванию суммы (при равенстве — по возрастанию маски).
func (s *Solver) candidates(ctx context.Context, inst *warehouse.Instance) ([]candidate, error) {
	n := inst.NumOrders()
	acc := make(map[int]int)

	var out []candidate
	for mask := uint64(1); mask < 1<<n; mask++ {
		if mask%checkEvery == 1 && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		units := 0
		for m := mask; m != 0; m &= m - 1 {
			units += inst.OrderUnits(bits.TrailingZeros64(m))
		}
		if !inst.Bounds.Contains(units) {
			continue
		}

		clear(acc)
		for m := mask; m != 0; m &= m - 1 {
			for item, qty := range inst.Orders[bits.TrailingZeros64(m)] {
				acc[item] += qty
			}
		}
		demand := make([]need, 0, len(acc))
		for item, qty := range acc {
			demand = append(demand, need{item: item, qty: qty})
		}
		sort.Slice(demand, func(i, j int) bool { return demand[i].item < demand[j].item })

		out = append(out, candidate{mask: mask, units: units, demand: demand})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].units != out[j].units {
			return out[i].units > out[j].units
		}
		return out[i].mask < out[j].mask
	})
	return out, nil
}

type searchStats struct {
	masks  int
	checks int
	pruned int
}

// search перебирает все непустые подмножества проходов. Для фиксированного набора
// из k проходов лучшая волна — первый (наибольший) кандидат, покрытый их запасом;
// набор пропускается, если даже наибольший кандидат не даёт эффективности выше текущей.
func search(ctx context.Context, inst *warehouse.Instance, cands []candidate, met *metrics.Search) (orders, aisles uint64, eff float64, st searchStats, err error) {
	if len(cands) == 0 {
		return 0, 0, 0, st, nil
	}
	top := cands[0].units
	stock := make([]int, inst.NumItems)

	n := inst.NumAisles()
	for mask := uint64(1); mask < 1<<n; mask++ {
		if mask%checkEvery == 1 && ctx.Err() != nil {
			return orders, aisles, eff, st, ctx.Err()
		}
		st.masks++

		k := float64(bits.OnesCount64(mask))
		if orders != 0 && float64(top)/k <= eff {
			st.pruned++
			continue
		}

		clear(stock)
		for m := mask; m != 0; m &= m - 1 {
			for item, qty := range inst.Aisles[bits.TrailingZeros64(m)] {
				stock[item] += qty
			}
		}

		for i := range cands {
			c := &cands[i]
			e := float64(c.units) / k
			if orders != 0 && e <= eff {
				break
			}
			st.checks++
			ok := covers(stock, c.demand)
			if ok {
				met.Candidate(nil)
				met.Improvement()
				orders, aisles, eff = c.mask, mask, e
				break
			}
			met.Candidate(warehouse.ErrInfeasible)
		}
	}
	return orders, aisles, eff, st, nil
}

func covers(stock []int, demand []need) bool {
	for _, d := range demand {
		if stock[d.item] < d.qty {
			return false
		}
	}
	return true
}

func maskIDs(mask uint64) []int {
	ids := make([]int, 0, bits.OnesCount64(mask))
	for m := mask; m != 0; m &= m - 1 {
		ids = append(ids, bits.TrailingZeros64(m))
	}
	return ids
}
