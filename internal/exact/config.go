package exact

import (
	"fmt"
	"time"
)

type Config struct {
	// MaxAisles, MaxOrders — ограничения на размер полного перебора (2^n подмножеств)
	MaxAisles int `yaml:"max_aisles"`
	MaxOrders int `yaml:"max_orders"`

	// TimeLimit — собственный лимит времени (0 — только дедлайн вызывающего)
	TimeLimit time.Duration `yaml:"time_limit"`
}

func DefaultConfig() Config {
	return Config{
		MaxAisles: 16,
		MaxOrders: 16,
		TimeLimit: 0,
	}
}

func (c Config) Validate() error {
	if c.MaxAisles <= 0 || c.MaxAisles > 30 {
		return fmt.Errorf(
			"MaxAisles должно быть в [1,30] (получено %d)",
			c.MaxAisles,
		)
	}
	if c.MaxOrders <= 0 || c.MaxOrders > 30 {
		return fmt.Errorf(
			"MaxOrders должно быть в [1,30] (получено %d)",
			c.MaxOrders,
		)
	}
	if c.TimeLimit < 0 {
		return fmt.Errorf(
			"TimeLimit должно быть >= 0 (получено %s)",
			c.TimeLimit,
		)
	}
	return nil
}
