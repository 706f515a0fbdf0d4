package bench

import "math"

// Summary — выборочные характеристики серии запусков.
// Std — несмещённое отклонение, 0 при менее чем двух значениях.
type Summary[T int | float64] struct {
	N    int
	Min  T
	Max  T
	Mean float64
	Std  float64
}

func Summarize[T int | float64](values []T) Summary[T] {
	s := Summary[T]{N: len(values)}
	if s.N == 0 {
		return s
	}

	s.Min, s.Max = values[0], values[0]
	total := 0.0
	for _, v := range values {
		s.Min = min(s.Min, v)
		s.Max = max(s.Max, v)
		total += float64(v)
	}
	s.Mean = total / float64(s.N)

	if s.N < 2 {
		return s
	}
	sq := 0.0
	for _, v := range values {
		d := float64(v) - s.Mean
		sq += d * d
	}
	s.Std = math.Sqrt(sq / float64(s.N-1))
	return s
}
