package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"pickWave/internal/exact"
	"pickWave/internal/grasp"
	"pickWave/internal/logging"
	"pickWave/internal/swarm"
)

// Log — параметры журналирования
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// File — конфигурация запуска: общий бюджет времени, зерно, набор стратегий
// и параметры каждой стратегии.
type File struct {
	TimeBudget time.Duration `yaml:"time_budget"`
	Seed       int64         `yaml:"seed"`
	Strategies []string      `yaml:"strategies"`

	Grasp grasp.Config `yaml:"grasp"`
	Swarm swarm.Config `yaml:"swarm"`
	Exact exact.Config `yaml:"exact"`

	Log Log `yaml:"log"`
}

func Default() File {
	return File{
		TimeBudget: time.Minute,
		Seed:       1000,
		Strategies: Names(),

		Grasp: grasp.DefaultConfig(),
		Swarm: swarm.DefaultConfig(),
		Exact: exact.DefaultConfig(),

		Log: Log{Level: "info", Format: string(logging.FormatText)},
	}
}

// Load читает YAML-файл поверх значений по умолчанию. Неизвестные ключи — ошибка.
func Load(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Parse(r io.Reader) (File, error) {
	cfg := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("ошибка разбора конфигурации: %w", err)
	}
	for i, s := range cfg.Strategies {
		cfg.Strategies[i] = strings.ToUpper(strings.TrimSpace(s))
	}

	if err := cfg.Validate(); err != nil {
		return File{}, err
	}
	return cfg, nil
}

func (c File) Validate() error {
	if c.TimeBudget <= 0 {
		return fmt.Errorf(
			"TimeBudget должно быть > 0 (получено %s)",
			c.TimeBudget,
		)
	}
	if len(c.Strategies) == 0 {
		return fmt.Errorf("не задано ни одной стратегии; доступные: %v", Names())
	}
	seen := make(map[string]bool, len(c.Strategies))
	for _, s := range c.Strategies {
		if !known(s) {
			return fmt.Errorf("неизвестная стратегия %q; доступные: %v", s, Names())
		}
		if seen[s] {
			return fmt.Errorf("стратегия %q указана дважды", s)
		}
		seen[s] = true
	}

	if err := c.Grasp.Validate(); err != nil {
		return fmt.Errorf("grasp: %w", err)
	}
	if err := c.Swarm.Validate(); err != nil {
		return fmt.Errorf("swarm: %w", err)
	}
	if err := c.Exact.Validate(); err != nil {
		return fmt.Errorf("exact: %w", err)
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	switch logging.Format(c.Log.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("log: неизвестный формат %q (text | json)", c.Log.Format)
	}
	return nil
}

// Names возвращает имена стратегий в порядке запуска по умолчанию.
func Names() []string {
	return []string{grasp.Strategy, swarm.Strategy, exact.Strategy}
}

func known(name string) bool {
	for _, n := range Names() {
		if n == name {
			return true
		}
	}
	return false
}
