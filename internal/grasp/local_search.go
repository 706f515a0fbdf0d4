package grasp

import (
	"context"

	"pickWave/internal/warehouse"
)

// localSearch — локальный поиск с первым улучшением.
// Окрестность: добавить один проход, которого нет в наборе (в порядке ранжирования),
// затем удалить один проход из набора (только если в наборе больше одного прохода).
// Принимается первый сосед со строго большей эффективностью, после чего окрестность
// строится заново. Останавливается, когда ни один сосед не улучшает решение.
func (w *worker) localSearch(ctx context.Context, set []int, best *warehouse.Wave, bestEff float64) (*warehouse.Wave, float64, int) {
	cur := append([]int(nil), set...)
	clear(w.inSet)
	for _, a := range cur {
		w.inSet[a] = true
	}

	neighbor := make([]int, 0, len(cur)+1)
	moves := 0
	for {
		if ctx.Err() != nil {
			break
		}
		if w.cfg.MaxLocalSearchPasses > 0 && moves >= w.cfg.MaxLocalSearchPasses {
			break
		}

		improved := false

		// Добавление прохода
		for _, a := range w.ranked {
			if w.inSet[a] {
				continue
			}
			neighbor = append(append(neighbor[:0], cur...), a)
			wave, eff, ok := w.try(neighbor, bestEff)
			if !ok {
				continue
			}
			w.inSet[a] = true
			w.accept(bestEff, eff)
			cur = append(cur[:0], neighbor...)
			best, bestEff = wave, eff
			improved = true
			break
		}

		// Удаление прохода
		if !improved && len(cur) > 1 {
			for i, a := range cur {
				neighbor = append(append(neighbor[:0], cur[:i]...), cur[i+1:]...)
				wave, eff, ok := w.try(neighbor, bestEff)
				if !ok {
					continue
				}
				w.inSet[a] = false
				w.accept(bestEff, eff)
				cur = append(cur[:0], neighbor...)
				best, bestEff = wave, eff
				improved = true
				break
			}
		}

		if !improved {
			break
		}
		moves++
	}

	return best, bestEff, moves
}

// try оценивает соседа; ok — сосед допустим и строго лучше текущего.
func (w *worker) try(aisles []int, bestEff float64) (*warehouse.Wave, float64, bool) {
	wave, err := w.eng.BuildWaveFromAisles(aisles)
	w.met.Candidate(err)
	if err != nil {
		return nil, 0, false
	}
	eff := warehouse.Efficiency(w.eng.Instance(), wave)
	return wave, eff, eff > bestEff
}

func (w *worker) accept(prev, next float64) {
	w.met.Improvement()
	if w.onMove != nil {
		w.onMove(prev, next)
	}
}
