package warehouse

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// WriteSolution writes the wave as: order count, order ids, aisle count,
// aisle ids, one number per line.
func WriteSolution(w io.Writer, wave *Wave) error {
	bw := bufio.NewWriter(w)
	writeList := func(ids []int) {
		fmt.Fprintln(bw, len(ids))
		for _, id := range ids {
			fmt.Fprintln(bw, id)
		}
	}
	writeList(wave.Orders)
	writeList(wave.Aisles)
	return bw.Flush()
}

// ReadSolution parses the format produced by WriteSolution. Picks are not
// part of the format and are left nil.
func ReadSolution(r io.Reader) (*Wave, error) {
	sc := bufio.NewScanner(r)
	var vals []int
	for lineNo := 1; sc.Scan(); lineNo++ {
		s := strings.TrimSpace(sc.Text())
		if s == "" {
			continue
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		vals = append(vals, v)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	orders, rest, err := takeList(vals, "orders")
	if err != nil {
		return nil, err
	}
	aisles, rest, err := takeList(rest, "aisles")
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%d trailing values after aisle list", len(rest))
	}
	return NewWave(orders, aisles, nil), nil
}

func takeList(vals []int, name string) ([]int, []int, error) {
	if len(vals) == 0 {
		return nil, nil, fmt.Errorf("%s: missing count", name)
	}
	n := vals[0]
	if n < 0 || len(vals)-1 < n {
		return nil, nil, fmt.Errorf("%s: count %d but %d values follow", name, n, len(vals)-1)
	}
	return vals[1 : 1+n], vals[1+n:], nil
}

// ReadSolutionJSON reads {"selected_orders": [...], "visited_aisles": [...]},
// the export format of the exact solver runs.
func ReadSolutionJSON(data []byte) (*Wave, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON solution")
	}
	doc := gjson.ParseBytes(data)

	read := func(key string) ([]int, error) {
		v := doc.Get(key)
		if !v.Exists() {
			return nil, fmt.Errorf("missing %q", key)
		}
		if !v.IsArray() {
			return nil, fmt.Errorf("%q must be an array", key)
		}
		var ids []int
		var bad error
		v.ForEach(func(_, x gjson.Result) bool {
			if x.Type != gjson.Number || x.Num != float64(int(x.Num)) {
				bad = fmt.Errorf("%q: %s is not an integer id", key, x.Raw)
				return false
			}
			ids = append(ids, int(x.Int()))
			return true
		})
		return ids, bad
	}

	orders, err := read("selected_orders")
	if err != nil {
		return nil, err
	}
	aisles, err := read("visited_aisles")
	if err != nil {
		return nil, err
	}
	return NewWave(orders, aisles, nil), nil
}
