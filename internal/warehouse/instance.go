package warehouse

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
)

// Order maps item id to the number of units the order requires.
type Order map[int]int

// Aisle maps item id to the number of units stocked in the aisle.
type Aisle map[int]int

// WaveBounds limits the total number of units picked in one wave.
type WaveBounds struct {
	Lower int
	Upper int
}

// Contains reports whether units lies in [Lower, Upper].
func (b WaveBounds) Contains(units int) bool {
	return units >= b.Lower && units <= b.Upper
}

// Stock is the quantity of one item available in one aisle.
type Stock struct {
	Aisle int
	Qty   int
}

type Instance struct {
	Orders   []Order
	Aisles   []Aisle
	NumItems int
	Bounds   WaveBounds

	once       sync.Once
	orderUnits []int
	aisleUnits []int
	// itemAisles[i] lists aisles stocking item i, by descending quantity then ascending aisle id.
	itemAisles [][]Stock
}

func NewInstance(orders []Order, aisles []Aisle, numItems int, bounds WaveBounds) (*Instance, error) {
	inst := &Instance{Orders: orders, Aisles: aisles, NumItems: numItems, Bounds: bounds}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	inst.prepare()
	return inst, nil
}

func (inst *Instance) Validate() error {
	if inst == nil {
		return errors.New("instance is nil")
	}
	if len(inst.Orders) == 0 {
		return errors.New("instance has no orders")
	}
	if len(inst.Aisles) == 0 {
		return errors.New("instance has no aisles")
	}
	if inst.NumItems <= 0 {
		return fmt.Errorf("items must be > 0 (got %d)", inst.NumItems)
	}
	if inst.Bounds.Lower < 0 || inst.Bounds.Upper < 0 {
		return fmt.Errorf("wave bounds must be >= 0 (got [%d,%d])", inst.Bounds.Lower, inst.Bounds.Upper)
	}
	if inst.Bounds.Lower > inst.Bounds.Upper {
		return fmt.Errorf("wave lower bound %d exceeds upper bound %d", inst.Bounds.Lower, inst.Bounds.Upper)
	}
	for o, order := range inst.Orders {
		if err := inst.checkEntries(order); err != nil {
			return fmt.Errorf("order %d: %w", o, err)
		}
	}
	for a, aisle := range inst.Aisles {
		if err := inst.checkEntries(aisle); err != nil {
			return fmt.Errorf("aisle %d: %w", a, err)
		}
	}
	return nil
}

func (inst *Instance) checkEntries(m map[int]int) error {
	for item, qty := range m {
		if item < 0 || item >= inst.NumItems {
			return fmt.Errorf("item %d out of range [0,%d)", item, inst.NumItems)
		}
		if qty <= 0 {
			return fmt.Errorf("item %d quantity must be > 0 (got %d)", item, qty)
		}
	}
	return nil
}

// prepare builds the read-only indexes. It is safe to call from several goroutines.
func (inst *Instance) prepare() {
	inst.once.Do(func() {
		inst.orderUnits = make([]int, len(inst.Orders))
		for o, order := range inst.Orders {
			for _, qty := range order {
				inst.orderUnits[o] += qty
			}
		}

		inst.aisleUnits = make([]int, len(inst.Aisles))
		inst.itemAisles = make([][]Stock, inst.NumItems)
		for a, aisle := range inst.Aisles {
			for item, qty := range aisle {
				inst.aisleUnits[a] += qty
				if item >= 0 && item < inst.NumItems {
					inst.itemAisles[item] = append(inst.itemAisles[item], Stock{Aisle: a, Qty: qty})
				}
			}
		}
		for _, list := range inst.itemAisles {
			sort.Slice(list, func(i, j int) bool {
				if list[i].Qty != list[j].Qty {
					return list[i].Qty > list[j].Qty
				}
				return list[i].Aisle < list[j].Aisle
			})
		}
	})
}

func (inst *Instance) NumOrders() int { return len(inst.Orders) }

func (inst *Instance) NumAisles() int { return len(inst.Aisles) }

// OrderUnits returns the total units requested by order o.
func (inst *Instance) OrderUnits(o int) int {
	inst.prepare()
	return inst.orderUnits[o]
}

// AisleUnits returns the total stock of aisle a summed over all items.
func (inst *Instance) AisleUnits(a int) int {
	inst.prepare()
	return inst.aisleUnits[a]
}

// StockingAisles returns the aisles holding item, best stocked first.
// The returned slice is shared and must not be modified.
func (inst *Instance) StockingAisles(item int) []Stock {
	inst.prepare()
	if item < 0 || item >= len(inst.itemAisles) {
		return nil
	}
	return inst.itemAisles[item]
}

// RankAisles returns the ids of aisles with positive stock sorted by descending
// total stock, ties broken by ascending id.
func (inst *Instance) RankAisles() []int {
	inst.prepare()
	ranked := make([]int, 0, len(inst.Aisles))
	for a, units := range inst.aisleUnits {
		if units > 0 {
			ranked = append(ranked, a)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return inst.aisleUnits[ranked[i]] > inst.aisleUnits[ranked[j]]
	})
	return ranked
}

// TotalStock returns the units of every item available over all aisles.
func (inst *Instance) TotalStock() int {
	inst.prepare()
	total := 0
	for _, u := range inst.aisleUnits {
		total += u
	}
	return total
}

// RandomInstance generates an instance whose wave bounds are derived from the
// total order demand. Used by benchmarks and tests.
func RandomInstance(orders, aisles, items int, rng *rand.Rand) *Instance {
	if rng == nil {
		panic("генератор случайных чисел не инициализирован (nil)")
	}
	if orders <= 0 || aisles <= 0 || items <= 0 {
		panic("invalid instance size")
	}

	os := make([]Order, orders)
	demand := 0
	for o := range os {
		os[o] = randomEntries(items, 1+rng.Intn(min(3, items)), 3, rng)
		for _, q := range os[o] {
			demand += q
		}
	}

	as := make([]Aisle, aisles)
	for a := range as {
		as[a] = Aisle(randomEntries(items, 1+rng.Intn(min(5, items)), 10, rng))
	}

	lb := demand / 10
	ub := demand / 3
	if ub < lb {
		ub = lb
	}
	inst, err := NewInstance(os, as, items, WaveBounds{Lower: lb, Upper: ub})
	if err != nil {
		panic(err)
	}
	return inst
}

func randomEntries(items, k, maxQty int, rng *rand.Rand) map[int]int {
	m := make(map[int]int, k)
	for _, item := range rng.Perm(items)[:k] {
		m[item] = 1 + rng.Intn(maxQty)
	}
	return m
}
