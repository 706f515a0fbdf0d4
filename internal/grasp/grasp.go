package grasp

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"pickWave/internal/logging"
	"pickWave/internal/metrics"
	"pickWave/internal/warehouse"
)

const Strategy = "GRASP"

// Solver — реализация GRASP: рандомизированное жадное построение волны по
// проходам из RCL и локальный поиск по окрестности добавления/удаления одного прохода.
type Solver struct {
	Cfg Config
	Rng *rand.Rand
	Log logrus.FieldLogger
}

// New возвращает новый GRASP-солвер с валидацией конфигурации, с использованием инициализированного генератора случайных чисел.
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

// worker владеет собственным движком, генератором и лучшим решением;
// общие для всех потоков только экземпляр и ранжирование проходов (только чтение).
type worker struct {
	id  int
	cfg Config
	rng *rand.Rand
	eng *warehouse.Engine

	ranked []int // проходы с ненулевым запасом, по убыванию суммарного запаса
	rcl    []int // первые RCLSize элементов ranked

	log      logrus.FieldLogger
	met      *metrics.Search
	progress *rate.Sometimes

	// onMove вызывается после каждого принятого хода локального поиска
	onMove func(prev, next float64)

	// Вспомогательные буферы
	pick  []int
	inSet []bool
}

type workerResult struct {
	id           int
	wave         *warehouse.Wave
	eff          float64
	restarts     int
	improvements int
	evals        int
	skipped      bool
	stopped      bool
}

func newWorker(id int, cfg Config, inst *warehouse.Instance, rng *rand.Rand, ranked []int, log logrus.FieldLogger) (*worker, error) {
	eng, err := warehouse.NewEngine(inst)
	if err != nil {
		return nil, err
	}
	rcl := ranked[:min(cfg.RCLSize, len(ranked))]
	return &worker{
		id:       id,
		cfg:      cfg,
		rng:      rng,
		eng:      eng,
		ranked:   ranked,
		rcl:      rcl,
		log:      logging.OrDiscard(log),
		met:      metrics.For(Strategy),
		progress: &rate.Sometimes{First: 1, Interval: rateInterval},
		pick:     make([]int, len(rcl)),
		inSet:    make([]bool, inst.NumAisles()),
	}, nil
}

// run — цикл рестартов одного потока. Время проверяется перед каждой итерацией;
// при истечении возвращается лучшее найденное решение (возможно, никакого).
func (w *worker) run(ctx context.Context) workerResult {
	res := workerResult{id: w.id}
	inst := w.eng.Instance()

	for it := 0; it < w.cfg.Iterations; it++ {
		// Для поддержки отмены через context
		if ctx.Err() != nil {
			res.stopped = true
			break
		}
		res.restarts++

		// CONSTRUCT
		set := w.construct()
		wave, err := w.eng.BuildWaveFromAisles(set)
		w.met.Candidate(err)
		if err != nil {
			continue
		}

		// LOCAL_SEARCH
		eff := warehouse.Efficiency(inst, wave)
		wave, eff, moves := w.localSearch(ctx, set, wave, eff)
		res.improvements += moves

		if res.wave == nil || eff > res.eff {
			res.wave, res.eff = wave, eff
			w.progress.Do(func() {
				w.log.WithFields(logrus.Fields{
					"worker":     w.id,
					"iteration":  it,
					"efficiency": eff,
				}).Debug("новое лучшее решение потока")
			})
		}
	}

	res.evals = w.eng.Evaluations()
	return res
}

// construct выбирает случайное число проходов r ∈ [1, MaxAislesToVisit]
// и min(r, |RCL|) случайных различных проходов из RCL.
func (w *worker) construct() []int {
	n := len(w.rcl)
	k := min(1+w.rng.Intn(w.cfg.MaxAislesToVisit), n)

	copy(w.pick, w.rcl)
	// Частичная перестановка Фишера — Йетса: первые k элементов случайны
	for t := 0; t < k; t++ {
		r := t + w.rng.Intn(n-t)
		w.pick[t], w.pick[r] = w.pick[r], w.pick[t]
	}

	set := make([]int, k)
	copy(set, w.pick[:k])
	return set
}
