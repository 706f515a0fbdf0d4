package grasp

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"pickWave/internal/logging"
	"pickWave/internal/metrics"
	"pickWave/internal/opt"
	"pickWave/internal/warehouse"
)

// rateInterval — минимальный интервал между отладочными сообщениями о прогрессе потока
const rateInterval = time.Second

// Solve запускает Workers независимых потоков GRASP с собственными генераторами
// и выбирает волну с максимальной эффективностью.
// Поток, не успевший стартовать до истечения времени, пропускается.
func (s *Solver) Solve(ctx context.Context, inst *warehouse.Instance) (opt.Result, error) {
	start := time.Now()

	// Валидация конфигурации
	if err := inst.Validate(); err != nil {
		return opt.Result{}, err
	}
	if err := s.Cfg.Validate(); err != nil {
		return opt.Result{}, err
	}
	if s.Rng == nil {
		return opt.Result{}, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}

	runID := opt.NewRunID()
	log := logging.OrDiscard(s.Log).WithFields(logrus.Fields{
		"strategy": Strategy,
		"run_id":   runID,
	})
	met := metrics.For(Strategy)

	workers := s.Cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	// Ранжирование проходов общее для всех потоков
	ranked := inst.RankAisles()

	// Зёрна потоков берутся из генератора солвера до запуска: результат
	// воспроизводим при фиксированном зерне и числе потоков.
	seeds := make([]int64, workers)
	for i := range seeds {
		seeds[i] = s.Rng.Int63()
	}

	log.WithFields(logrus.Fields{
		"workers":  workers,
		"rcl_size": min(s.Cfg.RCLSize, len(ranked)),
	}).Debug("запуск GRASP")

	p := pool.NewWithResults[workerResult]().WithMaxGoroutines(workers)
	for i := 0; i < workers; i++ {
		i := i
		p.Go(func() workerResult {
			if ctx.Err() != nil {
				log.WithField("worker", i).Debug("поток не запущен: время истекло")
				return workerResult{id: i, skipped: true}
			}
			w, err := newWorker(i, s.Cfg, inst, rand.New(rand.NewSource(seeds[i])), ranked, log)
			if err != nil {
				log.WithError(err).WithField("worker", i).Warn("поток не создан")
				return workerResult{id: i, skipped: true}
			}
			return w.run(ctx)
		})
	}
	results := p.Wait()
	sort.Slice(results, func(a, b int) bool { return results[a].id < results[b].id })

	var (
		best                          *warehouse.Wave
		bestEff                       float64
		evals, restarts, improvements int
		skipped                       int
		stopped                       bool
	)
	for _, r := range results {
		evals += r.evals
		restarts += r.restarts
		improvements += r.improvements
		if r.skipped {
			skipped++
			stopped = true
			continue
		}
		if r.stopped {
			stopped = true
		}
		if r.wave == nil {
			continue
		}
		if best == nil || r.eff > bestEff {
			best, bestEff = r.wave, r.eff
		}
	}

	res := opt.Result{
		RunID:       runID,
		Strategy:    Strategy,
		Evaluations: evals,
		Iterations:  restarts,
		Duration:    time.Since(start),
		Meta: map[string]any{
			"workers":         workers,
			"skipped_workers": skipped,
			"iterations":      s.Cfg.Iterations,
			"rcl_size":        s.Cfg.RCLSize,
			"max_aisles":      s.Cfg.MaxAislesToVisit,
			"improvements":    improvements,
		},
	}
	if stopped {
		res.Meta["stopped"] = "context"
	}
	met.Finish(res.Duration, bestEff, best != nil)

	if best == nil {
		log.WithField("evaluations", evals).Info("допустимая волна не найдена")
		return res, opt.NoSolution(Strategy)
	}

	res.Wave = best
	res.Efficiency = bestEff
	log.WithFields(logrus.Fields{
		"efficiency":  bestEff,
		"orders":      len(best.Orders),
		"aisles":      len(best.Aisles),
		"evaluations": evals,
		"duration":    res.Duration,
	}).Info("GRASP завершён")
	return res, nil
}
