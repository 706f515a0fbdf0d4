package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"pickWave/internal/bench"
	"pickWave/internal/config"
	"pickWave/internal/logging"
)

func main() {
	var (
		out          = flag.String("out", "artifacts/results.csv", "путь к выходному CSV-файлу")
		cfgPath      = flag.String("config", "", "путь к YAML-файлу конфигурации стратегий")
		instances    = flag.String("instances", "", "файлы экземпляров (через запятую)")
		random       = flag.String("random", "50x20x30,200x60x100", "случайные экземпляры: заказы Х проходы Х товары (через запятую)")
		runs         = flag.Int("runs", 10, "количество запусков каждого алгоритма (с разными сидами)")
		instanceSeed = flag.Int64("instance_seed", 777, "базовый сид для генерации случайных экземпляров (фиксирован для конфигурации)")
		perRunTO     = flag.Duration("per_run_timeout", 30*time.Second, "таймаут одного запуска; 0 — без ограничения")
	)
	overrides := config.BindFlags(flag.CommandLine)
	flag.Parse()

	ctx := context.Background()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			fmt.Fprintln(os.Stderr, "Конфликт в конфигурации:", err)
			os.Exit(2)
		}
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

	cases, err := parseCases(*instances, *random, *instanceSeed)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Конфликт:", err)
		os.Exit(2)
	}

	var selected []bench.Algorithm
	for _, name := range cfg.Strategies {
		factory, err := cfg.Factory(name, log)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		selected = append(selected, bench.Algorithm{Name: name, Factory: factory})
	}

	runner := bench.Runner{
		Runs:          *runs,
		BaseSeed:      cfg.Seed,
		PerRunTimeout: *perRunTO,
		Log:           log,
	}

	var records []bench.Record
	for _, c := range cases {
		for _, a := range selected {
			fmt.Printf("Запущен алгоритм %s; экземпляр %s (общее кол-во запусков=%d)...\n", a.Name, c.Name(), runner.Runs)

			rec, err := runner.RunCase(ctx, c, a)
			if err != nil {
				fmt.Fprintln(os.Stderr, "Ошибка:", err)
				os.Exit(1)
			}
			records = append(records, rec)

			fmt.Printf("  Эффективность: лучшая=%.4f средняя=%.4f стандартное отклонение=%.4f (найдено %d/%d) | Время: среднее=%.2fms среднее отклонение=%.2fms\n",
				rec.EfficiencyBest, rec.EfficiencyMean, rec.EfficiencyStd, rec.Found, rec.Runs,
				rec.TimeMeanMs, rec.TimeStdMs,
			)
		}
	}

	if err := bench.WriteCSV(*out, records); err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка при записи в CSV:", err)
		os.Exit(1)
	}
	fmt.Println("Saved:", *out)
}

// helpers

func parseCases(files, sizes string, baseInstanceSeed int64) ([]bench.Case, error) {
	var cases []bench.Case
	for _, path := range splitCSV(files) {
		cases = append(cases, bench.Case{Path: path})
	}

	for i, p := range splitCSV(sizes) {
		dims := strings.Split(p, "x")
		if len(dims) != 3 {
			return nil, fmt.Errorf("размер %q невалидной схемы, пример: 50x20x30", p)
		}
		var vals [3]int
		for d, s := range dims {
			v, err := atoiStrict(s)
			if err != nil {
				return nil, fmt.Errorf("размер %q: %w", p, err)
			}
			if v <= 0 {
				return nil, fmt.Errorf("размер %q: количество заказов, проходов и товаров должно быть > 0", p)
			}
			vals[d] = v
		}

		seed := baseInstanceSeed + int64(i)*10_000 + int64(vals[0])*100 + int64(vals[1])

		cases = append(cases, bench.Case{
			Orders:       vals[0],
			Aisles:       vals[1],
			Items:        vals[2],
			InstanceSeed: seed,
		})
	}

	if len(cases) == 0 {
		return nil, fmt.Errorf("не задано ни одного экземпляра: -instances или -random")
	}
	return cases, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func atoiStrict(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
