package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated registry exposed by cmd/wave.
	Registry = prometheus.NewRegistry()

	// Candidates counts candidate waves by strategy and outcome (feasible, infeasible).
	Candidates = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "wave_candidates_total", Help: "Candidate waves evaluated, by strategy and outcome."},
		[]string{"strategy", "outcome"},
	)
	// Improvements counts accepted improving moves.
	Improvements = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "wave_improvements_total", Help: "Improving moves accepted, by strategy."},
		[]string{"strategy"},
	)
	// SolveDuration records full solve durations in seconds.
	SolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "wave_solve_duration_seconds", Help: "Solve duration in seconds.", Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 120, 300}},
		[]string{"strategy"},
	)
	// BestEfficiency is the efficiency of the last wave returned per strategy.
	BestEfficiency = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "wave_best_efficiency", Help: "Efficiency of the best wave found, by strategy."},
		[]string{"strategy"},
	)
)

var regOnce sync.Once

// RegisterDefault registers the collectors on Registry once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(Candidates)
		Registry.MustRegister(Improvements)
		Registry.MustRegister(SolveDuration)
		Registry.MustRegister(BestEfficiency)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Search holds the label-bound series of one strategy so hot loops skip label lookups.
type Search struct {
	feasible     prometheus.Counter
	infeasible   prometheus.Counter
	improvements prometheus.Counter
	best         prometheus.Gauge
	duration     prometheus.Observer
}

func For(strategy string) *Search {
	return &Search{
		feasible:     Candidates.WithLabelValues(strategy, "feasible"),
		infeasible:   Candidates.WithLabelValues(strategy, "infeasible"),
		improvements: Improvements.WithLabelValues(strategy),
		best:         BestEfficiency.WithLabelValues(strategy),
		duration:     SolveDuration.WithLabelValues(strategy),
	}
}

// Candidate records the outcome of one candidate evaluation; err == nil means feasible.
func (s *Search) Candidate(err error) {
	if err == nil {
		s.feasible.Inc()
		return
	}
	s.infeasible.Inc()
}

func (s *Search) Improvement() { s.improvements.Inc() }

// Finish records the solve duration and, when a wave was found, its efficiency.
func (s *Search) Finish(d time.Duration, efficiency float64, found bool) {
	s.duration.Observe(d.Seconds())
	if found {
		s.best.Set(efficiency)
	}
}
