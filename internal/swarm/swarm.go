package swarm

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"pickWave/internal/logging"
	"pickWave/internal/metrics"
	"pickWave/internal/opt"
	"pickWave/internal/warehouse"
)

const Strategy = "SWARM"

// Solver — популяционный поиск мутациями: каждая частица независимо инвертирует
// принадлежность заказов, общий между частицами только трекер глобально лучшего решения.
type Solver struct {
	Cfg Config
	Rng *rand.Rand
	Log logrus.FieldLogger

	// onState вызывается с числом единиц каждого принятого состояния частицы
	onState func(units int)
}

// New возвращает новый солвер с валидацией конфигурации, с использованием инициализированного генератора случайных чисел.
// Используется в фабриках.
func New(cfg Config, rng *rand.Rand) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}
	return &Solver{Cfg: cfg, Rng: rng}, nil
}

func (s *Solver) WithLogger(l logrus.FieldLogger) *Solver {
	s.Log = l
	return s
}

// Solve — реализация эвристики.
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

	eng, err := warehouse.NewEngine(inst)
	if err != nil {
		return opt.Result{}, err
	}

	// Инициализация частиц
	var (
		ps         []*particle
		best       globalBest
		duplicates int
		failed     int
		stopped    bool
	)
	seen := make(map[string]struct{}, s.Cfg.Particles)
	for slot := 0; slot < s.Cfg.Particles; slot++ {
		// Для поддержки отмены через context
		if ctx.Err() != nil {
			stopped = true
			break
		}
		seed := s.Rng.Int63()

		sel, units, ok := seedSelection(inst, s.Rng)
		if !ok {
			failed++
			continue
		}
		wave, err := eng.WaveForOrders(selected(sel, nil))
		met.Candidate(err)
		if err != nil {
			failed++
			continue
		}
		key := wave.Key()
		if _, dup := seen[key]; dup {
			duplicates++
			continue
		}
		seen[key] = struct{}{}

		eff := warehouse.Efficiency(inst, wave)
		ps = append(ps, newParticle(rand.New(rand.NewSource(seed)), sel, units, wave, eff))
		s.trace(units)
		if best.offer(wave, eff) {
			met.Improvement()
		}
	}
	log.WithFields(logrus.Fields{
		"particles":  len(ps),
		"failed":     failed,
		"duplicates": duplicates,
	}).Debug("популяция инициализирована")

	workers := s.Cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	chunks := chunkBounds(len(ps), workers)

	// Свой движок на каждый поток: буферы движка не потокобезопасны
	engines := make([]*warehouse.Engine, len(chunks))
	engines[0] = eng
	for c := 1; c < len(chunks); c++ {
		if engines[c], err = warehouse.NewEngine(inst); err != nil {
			return opt.Result{}, err
		}
	}
	rejected := make([]int, len(chunks))

	progress := rate.Sometimes{First: 1, Interval: time.Second}

	// Основной цикл
	iter := 0
	for ; iter < s.Cfg.Iterations && len(ps) > 0; iter++ {
		// Для поддержки отмены через context
		if ctx.Err() != nil {
			stopped = true
			break
		}

		var g errgroup.Group
		g.SetLimit(workers)
		for c, b := range chunks {
			c, b := c, b
			g.Go(func() error {
				return s.step(ps[b[0]:b[1]], engines[c], &best, met, &rejected[c])
			})
		}
		if err := g.Wait(); err != nil {
			return opt.Result{}, err
		}

		progress.Do(func() {
			_, eff := best.get()
			log.WithFields(logrus.Fields{
				"iteration":  iter,
				"efficiency": eff,
			}).Debug("итерация популяции")
		})
	}

	// Отброшенные по границам мутации не доходят до движка
	evals := sum(rejected)
	for _, e := range engines {
		evals += e.Evaluations()
	}

	bestWave, bestEff := best.get()
	res := opt.Result{
		RunID:       runID,
		Strategy:    Strategy,
		Evaluations: evals,
		Iterations:  iter,
		Duration:    time.Since(start),
		Meta: map[string]any{
			"particles":      len(ps),
			"slots":          s.Cfg.Particles,
			"failed_slots":   failed,
			"duplicates":     duplicates,
			"mutation_rate":  s.Cfg.MutationRate,
			"workers":        len(chunks),
			"max_iterations": s.Cfg.Iterations,
		},
	}
	if stopped {
		res.Meta["stopped"] = "context"
	}
	met.Finish(res.Duration, bestEff, bestWave != nil)

	if bestWave == nil {
		log.WithField("evaluations", evals).Info("допустимая волна не найдена")
		return res, opt.NoSolution(Strategy)
	}

	res.Wave = bestWave
	res.Efficiency = bestEff
	log.WithFields(logrus.Fields{
		"efficiency":  bestEff,
		"orders":      len(bestWave.Orders),
		"aisles":      len(bestWave.Aisles),
		"evaluations": evals,
		"duration":    res.Duration,
	}).Info("популяционный поиск завершён")
	return res, nil
}

// step выполняет одну мутацию каждой частицы блока.
// Недопустимые мутации отбрасываются; прочие ошибки прерывают поиск.
func (s *Solver) step(ps []*particle, eng *warehouse.Engine, best *globalBest, met *metrics.Search, rejected *int) error {
	for _, p := range ps {
		err := p.mutate(eng, s.Cfg.MutationRate)
		met.Candidate(err)
		if errors.Is(err, errOutOfBounds) {
			*rejected++
			continue
		}
		if errors.Is(err, warehouse.ErrInfeasible) {
			continue
		}
		if err != nil {
			return err
		}
		s.trace(p.units)
		if best.offer(p.wave, p.eff) {
			met.Improvement()
		}
	}
	return nil
}

func (s *Solver) trace(units int) {
	if s.onState != nil {
		s.onState(units)
	}
}

// chunkBounds делит n частиц на не более чем workers непрерывных блоков [from, to).
// Всегда возвращает хотя бы один блок.
func chunkBounds(n, workers int) [][2]int {
	k := max(1, min(workers, n))
	out := make([][2]int, 0, k)
	size, rest := n/k, n%k
	from := 0
	for c := 0; c < k; c++ {
		to := from + size
		if c < rest {
			to++
		}
		out = append(out, [2]int{from, to})
		from = to
	}
	return out
}

func sum(xs []int) int {
	t := 0
	for _, x := range xs {
		t += x
	}
	return t
}
