package warehouse

import (
	"fmt"
	"sort"
)

// Engine turns candidate aisle or order selections into concrete waves.
// It owns scratch buffers sized to the instance and is not safe for
// concurrent use: every search worker builds its own.
type Engine struct {
	inst *Instance

	stock  []int
	demand []int

	// Stamp marks: slot == stamp means "seen in the current pass".
	aisleMark []int
	orderMark []int
	stamp     int

	evals int
}

func NewEngine(inst *Instance) (*Engine, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	inst.prepare()
	return &Engine{
		inst:      inst,
		stock:     make([]int, inst.NumItems),
		demand:    make([]int, inst.NumItems),
		aisleMark: make([]int, inst.NumAisles()),
		orderMark: make([]int, inst.NumOrders()),
	}, nil
}

func (e *Engine) Instance() *Instance { return e.inst }

// Evaluations counts candidate selections submitted to the engine.
func (e *Engine) Evaluations() int { return e.evals }

func (e *Engine) nextStamp() int {
	e.stamp++
	return e.stamp
}

// BuildWaveFromAisles pools the stock of the given aisles and scans orders in
// their original sequence, accepting each order whose demand is still covered
// by the remaining pooled stock and which keeps the wave within the upper
// bound. The accepted demand is then covered with AssignAisles over all aisles.
func (e *Engine) BuildWaveFromAisles(aisles []int) (*Wave, error) {
	e.evals++
	if len(aisles) == 0 {
		return nil, infeasible(ReasonEmptySelection, "no aisles selected")
	}

	inst := e.inst
	clear(e.stock)
	stamp := e.nextStamp()
	for _, a := range aisles {
		if a < 0 || a >= inst.NumAisles() {
			return nil, infeasible(ReasonUnknownID, "aisle %d out of range [0,%d)", a, inst.NumAisles())
		}
		if e.aisleMark[a] == stamp {
			continue
		}
		e.aisleMark[a] = stamp
		for item, qty := range inst.Aisles[a] {
			e.stock[item] += qty
		}
	}

	clear(e.demand)
	total := 0
	var orders []int
	for o, order := range inst.Orders {
		units := inst.orderUnits[o]
		if total+units > inst.Bounds.Upper {
			continue
		}
		if !e.covered(order) {
			continue
		}
		for item, qty := range order {
			e.stock[item] -= qty
			e.demand[item] += qty
		}
		orders = append(orders, o)
		total += units
	}

	if len(orders) == 0 {
		return nil, infeasible(ReasonEmptySelection, "no order fits the selected aisles")
	}
	if !inst.Bounds.Contains(total) {
		return nil, infeasible(ReasonBounds, "%d units outside [%d,%d]", total, inst.Bounds.Lower, inst.Bounds.Upper)
	}

	visited, picks, err := e.assign()
	if err != nil {
		return nil, err
	}
	return &Wave{Orders: orders, Aisles: visited, Picks: picks}, nil
}

func (e *Engine) covered(order Order) bool {
	for item, qty := range order {
		if e.stock[item] < qty {
			return false
		}
	}
	return true
}

// AssignAisles covers demand (item -> units) greedily, item by item, taking
// the best stocked aisles first. It fails when some item cannot be covered by
// the whole warehouse.
func (e *Engine) AssignAisles(demand map[int]int) ([]int, PickList, error) {
	clear(e.demand)
	for item, qty := range demand {
		if item < 0 || item >= e.inst.NumItems {
			return nil, nil, infeasible(ReasonUnknownID, "item %d out of range [0,%d)", item, e.inst.NumItems)
		}
		if qty < 0 {
			return nil, nil, fmt.Errorf("item %d: negative demand %d", item, qty)
		}
		e.demand[item] = qty
	}
	return e.assign()
}

// assign covers e.demand. Items are processed in ascending id order so the
// result only depends on the demand and the stock table.
func (e *Engine) assign() ([]int, PickList, error) {
	stamp := e.nextStamp()
	var visited []int
	picks := make(PickList)

	for item, need := range e.demand {
		if need <= 0 {
			continue
		}
		remaining := need
		for _, s := range e.inst.itemAisles[item] {
			if remaining <= 0 {
				break
			}
			take := min(s.Qty, remaining)
			picks[item] = append(picks[item], Pick{Aisle: s.Aisle, Qty: take})
			remaining -= take
			if e.aisleMark[s.Aisle] != stamp {
				e.aisleMark[s.Aisle] = stamp
				visited = append(visited, s.Aisle)
			}
		}
		if remaining > 0 {
			return nil, nil, infeasible(ReasonUnmetDemand, "item %d short by %d units", item, remaining)
		}
	}

	sort.Ints(visited)
	return visited, picks, nil
}

// WaveForOrders computes the aisles required by an order selection and
// re-verifies the full wave: non-empty selection and aisle set, bounds and
// per-item coverage.
func (e *Engine) WaveForOrders(orders []int) (*Wave, error) {
	e.evals++
	if len(orders) == 0 {
		return nil, infeasible(ReasonEmptySelection, "no orders selected")
	}

	inst := e.inst
	clear(e.demand)
	stamp := e.nextStamp()
	total := 0
	for _, o := range orders {
		if o < 0 || o >= inst.NumOrders() {
			return nil, infeasible(ReasonUnknownID, "order %d out of range [0,%d)", o, inst.NumOrders())
		}
		if e.orderMark[o] == stamp {
			return nil, infeasible(ReasonUnknownID, "duplicate order %d", o)
		}
		e.orderMark[o] = stamp
		total += inst.orderUnits[o]
	}
	if !inst.Bounds.Contains(total) {
		return nil, infeasible(ReasonBounds, "%d units outside [%d,%d]", total, inst.Bounds.Lower, inst.Bounds.Upper)
	}
	for _, o := range orders {
		for item, qty := range inst.Orders[o] {
			e.demand[item] += qty
		}
	}

	visited, picks, err := e.assign()
	if err != nil {
		return nil, err
	}
	if len(visited) == 0 {
		return nil, infeasible(ReasonEmptySelection, "selection requires no aisle")
	}

	clear(e.stock)
	for _, a := range visited {
		for item, qty := range inst.Aisles[a] {
			e.stock[item] += qty
		}
	}
	for item, need := range e.demand {
		if need > e.stock[item] {
			return nil, infeasible(ReasonUnmetDemand, "item %d short by %d units", item, need-e.stock[item])
		}
	}

	return NewWave(orders, visited, picks), nil
}

// WaveFromSelection validates an externally chosen (orders, aisles) pair and
// fills its pick list using only the given aisles.
func (e *Engine) WaveFromSelection(orders, aisles []int) (*Wave, error) {
	w := NewWave(orders, aisles, nil)
	if err := CheckWave(e.inst, w); err != nil {
		return nil, err
	}

	clear(e.demand)
	for _, o := range w.Orders {
		for item, qty := range e.inst.Orders[o] {
			e.demand[item] += qty
		}
	}
	stamp := e.nextStamp()
	for _, a := range w.Aisles {
		e.aisleMark[a] = stamp
	}

	w.Picks = make(PickList)
	for item, need := range e.demand {
		remaining := need
		for _, s := range e.inst.itemAisles[item] {
			if remaining <= 0 {
				break
			}
			if e.aisleMark[s.Aisle] != stamp {
				continue
			}
			take := min(s.Qty, remaining)
			w.Picks[item] = append(w.Picks[item], Pick{Aisle: s.Aisle, Qty: take})
			remaining -= take
		}
	}
	return w, nil
}
