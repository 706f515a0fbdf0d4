package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"pickWave/internal/config"
	"pickWave/internal/logging"
	"pickWave/internal/metrics"
	"pickWave/internal/opt"
	"pickWave/internal/warehouse"
)

func main() {
	var (
		instPath    = flag.String("instance", "", "путь к файлу экземпляра (обязательно)")
		cfgPath     = flag.String("config", "", "путь к YAML-файлу конфигурации")
		out         = flag.String("out", "", "путь к файлу решения; пусто — стандартный вывод")
		check       = flag.String("check", "", "проверить решение (текст или .json) на экземпляре и вывести эффективность")
		workers     = flag.Int("workers", -1, "количество потоков GRASP и популяционного поиска (<0 — из конфигурации)")
		metricsAddr = flag.String("metrics_addr", "", "адрес HTTP-сервера метрик Prometheus, например :9100")
	)
	overrides := config.BindFlags(flag.CommandLine)
	flag.Parse()

	if *instPath == "" {
		fmt.Fprintln(os.Stderr, "Не задан путь к экземпляру: -instance")
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			fmt.Fprintln(os.Stderr, "Конфликт в конфигурации:", err)
			os.Exit(2)
		}
	}
	if *workers >= 0 {
		cfg.Grasp.Workers = *workers
		cfg.Swarm.Workers = *workers
	}
	if err := overrides.Apply(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, "Конфликт в конфигурации:", err)
		os.Exit(2)
	}

	log, err := logging.New(cfg.Log.Level, logging.Format(cfg.Log.Format), os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка журнала:", err)
		os.Exit(2)
	}

	inst, err := warehouse.LoadInstance(*instPath)
	if err != nil {
		log.WithError(err).Error("экземпляр не прочитан")
		os.Exit(1)
	}
	log.WithFields(logrus.Fields{
		"orders": inst.NumOrders(),
		"aisles": inst.NumAisles(),
		"items":  inst.NumItems,
		"lb":     inst.Bounds.Lower,
		"ub":     inst.Bounds.Upper,
	}).Info("экземпляр загружен")

	if *check != "" {
		os.Exit(checkSolution(inst, *check))
	}

	metrics.RegisterDefault()
	if *metricsAddr != "" {
		srv := serveMetrics(*metricsAddr, log)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.TimeBudget)
	defer cancel()

	results := solveAll(ctx, cfg, inst, log)

	best, ok := opt.SelectBest(results)
	if !ok {
		log.Error("ни одна стратегия не нашла допустимую волну")
		fmt.Fprintln(os.Stderr, "Решение не найдено")
		os.Exit(1)
	}
	if err := warehouse.CheckWave(inst, best.Wave); err != nil {
		log.WithError(err).Error("лучшая волна не прошла проверку")
		os.Exit(1)
	}
	log.WithFields(logrus.Fields{
		"strategy":   best.Strategy,
		"efficiency": best.Efficiency,
		"run_id":     best.RunID,
	}).Info("выбрана лучшая волна")

	if err := writeSolution(*out, best.Wave); err != nil {
		log.WithError(err).Error("решение не записано")
		os.Exit(1)
	}
}

// solveAll запускает стратегии последовательно под общим дедлайном.
// Стратегия без решения не прерывает выбор среди остальных.
func solveAll(ctx context.Context, cfg config.File, inst *warehouse.Instance, log *logrus.Logger) []opt.Result {
	var results []opt.Result
	for i, name := range cfg.Strategies {
		factory, err := cfg.Factory(name, log)
		if err != nil {
			log.WithError(err).Error("стратегия пропущена")
			continue
		}

		fmt.Fprintf(os.Stderr, "Запущена стратегия %s...\n", name)
		res, err := factory(cfg.Seed + int64(i)).Solve(ctx, inst)
		switch {
		case errors.Is(err, opt.ErrNoSolution):
			fmt.Fprintf(os.Stderr, "  %s: решение не найдено (%.2fs)\n", name, res.Duration.Seconds())
			continue
		case err != nil:
			log.WithError(err).WithField("strategy", name).Error("ошибка стратегии")
			continue
		}

		fmt.Fprintf(os.Stderr, "  %s: эффективность=%.4f заказов=%d проходов=%d оценок=%d время=%.2fs\n",
			name, res.Efficiency, len(res.Wave.Orders), len(res.Wave.Aisles), res.Evaluations, res.Duration.Seconds())
		results = append(results, res)
	}
	return results
}

func checkSolution(inst *warehouse.Instance, path string) int {
	wave, err := readSolution(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка чтения решения:", err)
		return 1
	}
	if err := warehouse.CheckWave(inst, wave); err != nil {
		fmt.Printf("Решение недопустимо (%s): %v\n", warehouse.ReasonOf(err), err)
		return 1
	}
	fmt.Printf("Решение допустимо: заказов=%d проходов=%d единиц=%d эффективность=%.4f\n",
		len(wave.Orders), len(wave.Aisles), warehouse.UnitsPicked(inst, wave.Orders), warehouse.Efficiency(inst, wave))
	return 0
}

func readSolution(path string) (*warehouse.Wave, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return warehouse.ReadSolutionJSON(data)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return warehouse.ReadSolution(f)
}

func writeSolution(path string, wave *warehouse.Wave) error {
	if path == "" {
		return warehouse.WriteSolution(os.Stdout, wave)
	}
	if d := filepath.Dir(path); d != "." {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := warehouse.WriteSolution(f, wave); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func serveMetrics(addr string, log logrus.FieldLogger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("сервер метрик остановлен")
		}
	}()
	log.WithField("addr", addr).Info("метрики доступны на /metrics")
	return srv
}
