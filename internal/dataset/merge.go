package dataset

import "math"

var nan = math.NaN()

// Merge concatenates tables in argument order. Row order within each table
// is preserved, and a field absent from one source simply stays null on its
// rows, so the merged schema is the union of the inputs.
func Merge(tables ...*Table) *Table {
	n := 0
	for _, t := range tables {
		if t != nil {
			n += len(t.Rows)
		}
	}
	out := &Table{Rows: make([]Observation, 0, n)}
	for _, t := range tables {
		if t == nil {
			continue
		}
		out.Rows = append(out.Rows, t.Rows...)
		out.Sources = append(out.Sources, t.Sources...)
	}
	return out
}
