package config

import (
	"flag"
	"strings"
)

// Overrides — флаги командной строки, переопределяющие значения файла конфигурации.
// Применяются только явно заданные флаги.
type Overrides struct {
	fs     *flag.FlagSet
	vals   File
	algos  string
	setter map[string]func(*File)
}

// BindFlags регистрирует флаги стратегий, бюджета времени и журналирования в fs.
func BindFlags(fs *flag.FlagSet) *Overrides {
	d := Default()
	o := &Overrides{fs: fs, vals: d}
	v := &o.vals

	fs.DurationVar(&v.TimeBudget, "time_budget", d.TimeBudget, "общий бюджет времени на все стратегии")
	fs.Int64Var(&v.Seed, "seed", d.Seed, "базовый сид генераторов случайных чисел")
	fs.StringVar(&o.algos, "algos", strings.Join(d.Strategies, ","), "список стратегий: GRASP, SWARM, EXACT (через запятую)")

	// --- GRASP ---
	fs.IntVar(&v.Grasp.Iterations, "grasp_iter", d.Grasp.Iterations, "количество рестартов в каждом потоке")
	fs.IntVar(&v.Grasp.RCLSize, "grasp_rcl", d.Grasp.RCLSize, "размер списка кандидатов (RCL)")
	fs.IntVar(&v.Grasp.MaxAislesToVisit, "grasp_max_aisles", d.Grasp.MaxAislesToVisit, "максимум проходов, выбираемых из RCL")
	fs.IntVar(&v.Grasp.Workers, "grasp_workers", d.Grasp.Workers, "количество потоков (0 — по числу CPU)")
	fs.IntVar(&v.Grasp.MaxLocalSearchPasses, "grasp_ls_passes", d.Grasp.MaxLocalSearchPasses, "ограничение числа улучшений локального поиска (0 — без ограничения)")

	// --- Популяционный поиск ---
	fs.IntVar(&v.Swarm.Particles, "swarm_particles", d.Swarm.Particles, "количество частиц")
	fs.IntVar(&v.Swarm.Iterations, "swarm_iter", d.Swarm.Iterations, "количество итераций")
	fs.Float64Var(&v.Swarm.MutationRate, "swarm_mut", d.Swarm.MutationRate, "вероятность инвертировать заказ при мутации")
	fs.IntVar(&v.Swarm.Workers, "swarm_workers", d.Swarm.Workers, "количество потоков (1 — последовательно, 0 — по числу CPU)")

	// --- Точный перебор ---
	fs.IntVar(&v.Exact.MaxAisles, "exact_max_aisles", d.Exact.MaxAisles, "максимум проходов для полного перебора")
	fs.IntVar(&v.Exact.MaxOrders, "exact_max_orders", d.Exact.MaxOrders, "максимум заказов для полного перебора")
	fs.DurationVar(&v.Exact.TimeLimit, "exact_time_limit", d.Exact.TimeLimit, "собственный лимит времени точного перебора; 0 — без ограничения")

	// --- Журнал ---
	fs.StringVar(&v.Log.Level, "log_level", d.Log.Level, "уровень журналирования: debug | info | warn | error")
	fs.StringVar(&v.Log.Format, "log_format", d.Log.Format, "формат журнала: text | json")

	o.setter = map[string]func(*File){
		"time_budget": func(c *File) { c.TimeBudget = v.TimeBudget },
		"seed":        func(c *File) { c.Seed = v.Seed },
		"algos":       func(c *File) { c.Strategies = splitNames(o.algos) },

		"grasp_iter":       func(c *File) { c.Grasp.Iterations = v.Grasp.Iterations },
		"grasp_rcl":        func(c *File) { c.Grasp.RCLSize = v.Grasp.RCLSize },
		"grasp_max_aisles": func(c *File) { c.Grasp.MaxAislesToVisit = v.Grasp.MaxAislesToVisit },
		"grasp_workers":    func(c *File) { c.Grasp.Workers = v.Grasp.Workers },
		"grasp_ls_passes":  func(c *File) { c.Grasp.MaxLocalSearchPasses = v.Grasp.MaxLocalSearchPasses },

		"swarm_particles": func(c *File) { c.Swarm.Particles = v.Swarm.Particles },
		"swarm_iter":      func(c *File) { c.Swarm.Iterations = v.Swarm.Iterations },
		"swarm_mut":       func(c *File) { c.Swarm.MutationRate = v.Swarm.MutationRate },
		"swarm_workers":   func(c *File) { c.Swarm.Workers = v.Swarm.Workers },

		"exact_max_aisles": func(c *File) { c.Exact.MaxAisles = v.Exact.MaxAisles },
		"exact_max_orders": func(c *File) { c.Exact.MaxOrders = v.Exact.MaxOrders },
		"exact_time_limit": func(c *File) { c.Exact.TimeLimit = v.Exact.TimeLimit },

		"log_level":  func(c *File) { c.Log.Level = v.Log.Level },
		"log_format": func(c *File) { c.Log.Format = v.Log.Format },
	}
	return o
}

// Apply переносит в c значения флагов, явно заданных в командной строке, и проверяет результат.
func (o *Overrides) Apply(c *File) error {
	o.fs.Visit(func(f *flag.Flag) {
		if set, ok := o.setter[f.Name]; ok {
			set(c)
		}
	})
	return c.Validate()
}

func splitNames(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
