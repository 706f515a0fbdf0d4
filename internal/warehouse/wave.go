package warehouse

import (
	"sort"
	"strconv"
	"strings"
)

// Pick takes Qty units of an item from Aisle.
type Pick struct {
	Aisle int
	Qty   int
}

// PickList holds, per item, the picks covering the wave's demand for it.
type PickList map[int][]Pick

// Wave is a set of selected orders and the aisles visited to fulfil them.
// Orders and Aisles are kept sorted ascending.
type Wave struct {
	Orders []int
	Aisles []int
	Picks  PickList
}

// NewWave copies and sorts the ids.
func NewWave(orders, aisles []int, picks PickList) *Wave {
	w := &Wave{
		Orders: append([]int(nil), orders...),
		Aisles: append([]int(nil), aisles...),
		Picks:  picks,
	}
	sort.Ints(w.Orders)
	sort.Ints(w.Aisles)
	return w
}

func (w *Wave) Clone() *Wave {
	if w == nil {
		return nil
	}
	c := &Wave{
		Orders: append([]int(nil), w.Orders...),
		Aisles: append([]int(nil), w.Aisles...),
	}
	if w.Picks != nil {
		c.Picks = make(PickList, len(w.Picks))
		for item, picks := range w.Picks {
			c.Picks[item] = append([]Pick(nil), picks...)
		}
	}
	return c
}

// Key is a canonical encoding of the (orders, aisles) pair.
func (w *Wave) Key() string {
	var b strings.Builder
	b.Grow(4 * (len(w.Orders) + len(w.Aisles) + 2))
	b.WriteString("o")
	for _, o := range w.Orders {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(o))
	}
	b.WriteString("|a")
	for _, a := range w.Aisles {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(a))
	}
	return b.String()
}

// UnitsPicked sums the units of every order in the selection.
func UnitsPicked(inst *Instance, orders []int) int {
	total := 0
	for _, o := range orders {
		total += inst.OrderUnits(o)
	}
	return total
}

// Efficiency is units picked per visited aisle; 0 when no aisle is visited.
func Efficiency(inst *Instance, w *Wave) float64 {
	if w == nil || len(w.Aisles) == 0 {
		return 0
	}
	return float64(UnitsPicked(inst, w.Orders)) / float64(len(w.Aisles))
}

// CheckWave verifies that w respects every wave invariant for inst.
func CheckWave(inst *Instance, w *Wave) error {
	if w == nil {
		return infeasible(ReasonEmptySelection, "nil wave")
	}
	if err := checkIDs("order", w.Orders, inst.NumOrders()); err != nil {
		return err
	}
	if err := checkIDs("aisle", w.Aisles, inst.NumAisles()); err != nil {
		return err
	}
	if len(w.Orders) > 0 && len(w.Aisles) == 0 {
		return infeasible(ReasonEmptySelection, "%d orders selected but no aisle visited", len(w.Orders))
	}

	units := UnitsPicked(inst, w.Orders)
	if !inst.Bounds.Contains(units) {
		return infeasible(ReasonBounds, "%d units outside [%d,%d]", units, inst.Bounds.Lower, inst.Bounds.Upper)
	}

	demand := make([]int, inst.NumItems)
	for _, o := range w.Orders {
		for item, qty := range inst.Orders[o] {
			demand[item] += qty
		}
	}
	for _, a := range w.Aisles {
		for item, qty := range inst.Aisles[a] {
			demand[item] -= qty
		}
	}
	for item, short := range demand {
		if short > 0 {
			return infeasible(ReasonUnmetDemand, "item %d short by %d units", item, short)
		}
	}
	return nil
}

func checkIDs(kind string, ids []int, n int) error {
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if id < 0 || id >= n {
			return infeasible(ReasonUnknownID, "%s %d out of range [0,%d)", kind, id, n)
		}
		if _, dup := seen[id]; dup {
			return infeasible(ReasonUnknownID, "duplicate %s %d", kind, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
