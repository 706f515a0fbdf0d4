package swarm

import "fmt"

type Config struct {
	// Particles — число слотов популяции при инициализации
	Particles int `yaml:"particles"`

	// Iterations — число итераций мутации
	Iterations int `yaml:"iterations"`

	// MutationRate — вероятность инвертировать принадлежность каждого заказа
	MutationRate float64 `yaml:"mutation_rate"`

	// Workers — число параллельных потоков на итерацию (1 — последовательно, 0 — по числу CPU)
	Workers int `yaml:"workers"`
}

func DefaultConfig() Config {
	return Config{
		Particles:    200,
		Iterations:   40,
		MutationRate: 0.6,
		Workers:      1,
	}
}

func (c Config) Validate() error {
	if c.Particles <= 0 {
		return fmt.Errorf(
			"Particles должно быть > 0 (получено %d)",
			c.Particles,
		)
	}
	if c.Iterations < 0 {
		return fmt.Errorf(
			"Iterations должно быть >= 0 (получено %d)",
			c.Iterations,
		)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf(
			"MutationRate должно быть в [0,1] (получено %f)",
			c.MutationRate,
		)
	}
	if c.Workers < 0 {
		return fmt.Errorf(
			"Workers должно быть >= 0 (получено %d)",
			c.Workers,
		)
	}
	return nil
}
