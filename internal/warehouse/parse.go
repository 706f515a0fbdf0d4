package warehouse

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadInstance parses the challenge text format:
//
//	nOrders nItems nAisles
//	k item qty ... item qty     (one line per order)
//	k item qty ... item qty     (one line per aisle)
//	lowerBound upperBound
//
// Blank lines are ignored.
func ReadInstance(r io.Reader) (*Instance, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNo := 0
	next := func() ([]int, int, error) {
		for sc.Scan() {
			lineNo++
			fields := strings.Fields(sc.Text())
			if len(fields) == 0 {
				continue
			}
			vals := make([]int, len(fields))
			for i, f := range fields {
				v, err := strconv.Atoi(f)
				if err != nil {
					return nil, lineNo, fmt.Errorf("line %d: field %d: %w", lineNo, i+1, err)
				}
				vals[i] = v
			}
			return vals, lineNo, nil
		}
		if err := sc.Err(); err != nil {
			return nil, lineNo, err
		}
		return nil, lineNo, io.ErrUnexpectedEOF
	}

	header, ln, err := next()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	if len(header) != 3 {
		return nil, fmt.Errorf("line %d: header must have 3 fields (got %d)", ln, len(header))
	}
	nOrders, nItems, nAisles := header[0], header[1], header[2]
	if nOrders <= 0 || nItems <= 0 || nAisles <= 0 {
		return nil, fmt.Errorf("line %d: sizes must be > 0 (got %d %d %d)", ln, nOrders, nItems, nAisles)
	}

	orders := make([]Order, nOrders)
	for o := range orders {
		vals, ln, err := next()
		if err != nil {
			return nil, fmt.Errorf("order %d: %w", o, err)
		}
		m, err := parseEntries(vals)
		if err != nil {
			return nil, fmt.Errorf("line %d: order %d: %w", ln, o, err)
		}
		orders[o] = m
	}

	aisles := make([]Aisle, nAisles)
	for a := range aisles {
		vals, ln, err := next()
		if err != nil {
			return nil, fmt.Errorf("aisle %d: %w", a, err)
		}
		m, err := parseEntries(vals)
		if err != nil {
			return nil, fmt.Errorf("line %d: aisle %d: %w", ln, a, err)
		}
		aisles[a] = Aisle(m)
	}

	bounds, ln, err := next()
	if err != nil {
		return nil, fmt.Errorf("wave bounds: %w", err)
	}
	if len(bounds) != 2 {
		return nil, fmt.Errorf("line %d: wave bounds must have 2 fields (got %d)", ln, len(bounds))
	}

	return NewInstance(orders, aisles, nItems, WaveBounds{Lower: bounds[0], Upper: bounds[1]})
}

func parseEntries(vals []int) (map[int]int, error) {
	k := vals[0]
	if k < 0 || len(vals) != 1+2*k {
		return nil, fmt.Errorf("expected %d item/quantity pairs, got %d values", k, len(vals)-1)
	}
	m := make(map[int]int, k)
	for i := 0; i < k; i++ {
		item, qty := vals[1+2*i], vals[2+2*i]
		if _, dup := m[item]; dup {
			return nil, fmt.Errorf("duplicate item %d", item)
		}
		m[item] = qty
	}
	return m, nil
}

func LoadInstance(path string) (*Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	inst, err := ReadInstance(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return inst, nil
}
