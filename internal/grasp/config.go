package grasp

import "fmt"

type Config struct {
	// Iterations — число рестартов CONSTRUCT → LOCAL_SEARCH в каждом потоке
	Iterations int `yaml:"iterations"`

	// RCLSize — размер ограниченного списка кандидатов (лучшие проходы по суммарному запасу)
	RCLSize int `yaml:"rcl_size"`

	// MaxAislesToVisit — верхняя граница случайного числа проходов, выбираемых из RCL
	MaxAislesToVisit int `yaml:"max_aisles_to_visit"`

	// Workers — количество параллельных потоков (0 — по числу CPU)
	Workers int `yaml:"workers"`

	// MaxLocalSearchPasses ограничивает число улучшений локального поиска (0 — без ограничения)
	MaxLocalSearchPasses int `yaml:"max_local_search_passes"`
}

func DefaultConfig() Config {
	return Config{
		Iterations:       50,
		RCLSize:          10,
		MaxAislesToVisit: 10,
		Workers:          0,

		MaxLocalSearchPasses: 0,
	}
}

func (c Config) Validate() error {
	if c.Iterations <= 0 {
		return fmt.Errorf(
			"Iterations должно быть > 0 (получено %d)",
			c.Iterations,
		)
	}
	if c.RCLSize <= 0 {
		return fmt.Errorf(
			"RCLSize должно быть > 0 (получено %d)",
			c.RCLSize,
		)
	}
	if c.MaxAislesToVisit <= 0 {
		return fmt.Errorf(
			"MaxAislesToVisit должно быть > 0 (получено %d)",
			c.MaxAislesToVisit,
		)
	}
	if c.Workers < 0 {
		return fmt.Errorf(
			"Workers должно быть >= 0 (получено %d)",
			c.Workers,
		)
	}
	if c.MaxLocalSearchPasses < 0 {
		return fmt.Errorf(
			"MaxLocalSearchPasses должно быть >= 0 (получено %d)",
			c.MaxLocalSearchPasses,
		)
	}
	return nil
}
