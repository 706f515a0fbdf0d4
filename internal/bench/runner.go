package bench

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"pickWave/internal/logging"
	"pickWave/internal/opt"
	"pickWave/internal/warehouse"
)

type Algorithm struct {
	Name    string
	Factory func(seed int64) opt.Optimizer
}

// Case — экземпляр из файла (Path) или случайный экземпляр заданного размера.
type Case struct {
	Path string

	Orders       int
	Aisles       int
	Items        int
	InstanceSeed int64
}

func (c Case) Name() string {
	if c.Path != "" {
		return strings.TrimSuffix(filepath.Base(c.Path), filepath.Ext(c.Path))
	}
	return fmt.Sprintf("random_%dx%dx%d", c.Orders, c.Aisles, c.Items)
}

func (c Case) Load() (*warehouse.Instance, error) {
	if c.Path != "" {
		return warehouse.LoadInstance(c.Path)
	}
	if c.Orders <= 0 || c.Aisles <= 0 || c.Items <= 0 {
		return nil, fmt.Errorf("случайный экземпляр %s: размеры должны быть > 0", c.Name())
	}
	return warehouse.RandomInstance(c.Orders, c.Aisles, c.Items, rand.New(rand.NewSource(c.InstanceSeed))), nil
}

type Record struct {
	Algo     string
	Instance string
	Orders   int
	Aisles   int
	Runs     int
	Found    int

	TimeBestMs float64
	TimeMeanMs float64
	TimeStdMs  float64

	EfficiencyBest float64
	EfficiencyMean float64
	EfficiencyStd  float64

	EvaluationsMean float64
}

type Runner struct {
	Runs          int
	BaseSeed      int64
	PerRunTimeout time.Duration // 0 = no timeout

	Log logrus.FieldLogger
}

// RunCase запускает алгоритм Runs раз с зёрнами BaseSeed+i.
// Запуск без решения (ErrNoSolution) учитывается в Found, прочие ошибки прерывают серию.
func (r Runner) RunCase(ctx context.Context, c Case, algo Algorithm) (Record, error) {
	inst, err := c.Load()
	if err != nil {
		return Record{}, err
	}
	log := logging.OrDiscard(r.Log).WithFields(logrus.Fields{
		"strategy": algo.Name,
		"instance": c.Name(),
	})

	effs := make([]float64, 0, r.Runs)
	timesMs := make([]float64, 0, r.Runs)
	evals := make([]int, 0, r.Runs)

	for i := 0; i < r.Runs; i++ {
		if err := ctx.Err(); err != nil {
			return Record{}, fmt.Errorf("run %d: %w", i, err)
		}
		runSeed := r.BaseSeed + int64(i)

		op := algo.Factory(runSeed)

		runCtx := ctx
		cancel := func() {}
		if r.PerRunTimeout > 0 {
			runCtx, cancel = context.WithTimeout(ctx, r.PerRunTimeout)
		}
		start := time.Now()
		res, err := op.Solve(runCtx, inst)
		dur := time.Since(start)
		cancel()

		timesMs = append(timesMs, float64(dur.Microseconds())/1000.0)
		evals = append(evals, res.Evaluations)

		if errors.Is(err, opt.ErrNoSolution) {
			log.WithField("seed", runSeed).Debug("запуск без решения")
			continue
		}
		if err != nil {
			return Record{}, fmt.Errorf("run %d: solve error: %w", i, err)
		}
		if err := warehouse.CheckWave(inst, res.Wave); err != nil {
			return Record{}, fmt.Errorf("run %d: invalid wave: %w", i, err)
		}

		effs = append(effs, res.Efficiency)
	}

	eStats := Summarize(effs)
	tStats := Summarize(timesMs)
	vStats := Summarize(evals)

	return Record{
		Algo:     algo.Name,
		Instance: c.Name(),
		Orders:   inst.NumOrders(),
		Aisles:   inst.NumAisles(),
		Runs:     r.Runs,
		Found:    eStats.N,

		TimeBestMs: tStats.Min,
		TimeMeanMs: tStats.Mean,
		TimeStdMs:  tStats.Std,

		EfficiencyBest: eStats.Max,
		EfficiencyMean: eStats.Mean,
		EfficiencyStd:  eStats.Std,

		EvaluationsMean: vStats.Mean,
	}, nil
}

func WriteCSV(path string, records []Record) error {
	if d := dirOf(path); d != "" {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := []string{
		"algo", "instance", "orders", "aisles", "runs", "found",
		"time_best_ms", "time_mean_ms", "time_std_ms",
		"efficiency_best", "efficiency_mean", "efficiency_std",
		"evaluations_mean",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			r.Algo,
			r.Instance,
			itoa(r.Orders),
			itoa(r.Aisles),
			itoa(r.Runs),
			itoa(r.Found),

			ftoa(r.TimeBestMs),
			ftoa(r.TimeMeanMs),
			ftoa(r.TimeStdMs),

			ftoa(r.EfficiencyBest),
			ftoa(r.EfficiencyMean),
			ftoa(r.EfficiencyStd),

			ftoa(r.EvaluationsMean),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func dirOf(path string) string {
	if d := filepath.Dir(path); d != "." {
		return d
	}
	return ""
}

func itoa(v int) string { return strconv.Itoa(v) }

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
