package config

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"pickWave/internal/exact"
	"pickWave/internal/grasp"
	"pickWave/internal/opt"
	"pickWave/internal/swarm"
)

// Фабрики

func newGRASPFactory(cfg grasp.Config, log logrus.FieldLogger) func(seed int64) opt.Optimizer {
	return func(seed int64) opt.Optimizer {
		solver, _ := grasp.New(cfg, rand.New(rand.NewSource(seed)))
		return solver.WithLogger(log)
	}
}

func newSwarmFactory(cfg swarm.Config, log logrus.FieldLogger) func(seed int64) opt.Optimizer {
	return func(seed int64) opt.Optimizer {
		solver, _ := swarm.New(cfg, rand.New(rand.NewSource(seed)))
		return solver.WithLogger(log)
	}
}

// Точный перебор детерминирован: зерно не используется
func newExactFactory(cfg exact.Config, log logrus.FieldLogger) func(seed int64) opt.Optimizer {
	return func(int64) opt.Optimizer {
		solver, _ := exact.New(cfg)
		return solver.WithLogger(log)
	}
}

// Factory возвращает конструктор стратегии name по зерну.
// Невалидная конфигурация отклоняется до создания конструктора.
func (c File) Factory(name string, log logrus.FieldLogger) (func(seed int64) opt.Optimizer, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch name {
	case grasp.Strategy:
		return newGRASPFactory(c.Grasp, log), nil
	case swarm.Strategy:
		return newSwarmFactory(c.Swarm, log), nil
	case exact.Strategy:
		return newExactFactory(c.Exact, log), nil
	}
	return nil, fmt.Errorf("алгоритм не предоставлен в программе %q; доступные: %v", name, Names())
}
