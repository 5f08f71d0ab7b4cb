package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/MatheusFeliciano0904/Analise-Estatistica-Evolucao-Saude-Indigena/internal/dataset"
)

// Profile is a per-column overview of a raw export, used to find the source
// columns to put in column_map.
type Profile struct {
	Name    string
	Rows    int
	Skipped int
	Cols    []ColumnProfile
}

// ColumnProfile captures the inferred kind and basic statistics of a column.
type ColumnProfile struct {
	Name       string
	Normalized string
	Kind       string // numeric|datetime|categorical|text|empty
	NonNull    int
	Missing    int
	Unique     int
	Min, Max   float64
	Mean, Std  float64
	TopValues  []CategoryCount
}

type CategoryCount struct {
	Value string
	Count int
}

// ProfileRaw infers column kinds and summaries for raw.
func ProfileRaw(raw *dataset.Raw, spaceRepl string) *Profile {
	p := &Profile{Name: raw.Name, Rows: len(raw.Rows), Skipped: raw.Skipped}
	norm := dataset.NormalizeColumns(raw.Header, spaceRepl)
	for j, name := range raw.Header {
		type acc struct {
			n, num, dt, txt int
			mean, m2        float64
			min, max        float64
			cats            map[string]int
		}
		a := acc{min: math.Inf(1), max: math.Inf(-1), cats: map[string]int{}}
		c := ColumnProfile{Name: strings.TrimSpace(name), Normalized: norm[j]}
		for _, row := range raw.Rows {
			v := strings.TrimSpace(row[j])
			if v == "" {
				c.Missing++
				continue
			}
			c.NonNull++
			if x, ok := dataset.ParseNumeric(v); ok {
				a.num++
				// Welford update
				a.n++
				a.min = math.Min(a.min, x)
				a.max = math.Max(a.max, x)
				delta := x - a.mean
				a.mean += delta / float64(a.n)
				a.m2 += delta * (x - a.mean)
				continue
			}
			if _, ok := dataset.ParseTime(v); ok {
				a.dt++
				continue
			}
			a.txt++
			if len(a.cats) <= 10000 && len(v) <= 64 {
				a.cats[v]++
			}
		}
		switch {
		case c.NonNull == 0:
			c.Kind = "empty"
		case a.num >= a.dt && a.num >= a.txt:
			c.Kind = "numeric"
			c.Min, c.Max, c.Mean = a.min, a.max, a.mean
			if a.n > 1 {
				c.Std = math.Sqrt(a.m2 / float64(a.n-1))
			}
		case a.dt >= a.txt:
			c.Kind = "datetime"
		case len(a.cats) > 0:
			c.Kind = "categorical"
			c.Unique = len(a.cats)
			c.TopValues = topValues(a.cats, 5)
		default:
			c.Kind = "text"
		}
		p.Cols = append(p.Cols, c)
	}
	return p
}

func topValues(cats map[string]int, limit int) []CategoryCount {
	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > limit {
		tops = tops[:limit]
	}
	return tops
}

// Markdown renders a compact schema listing.
func (p *Profile) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET PROFILE]\n")
	if p.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", p.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", p.Rows))
	if p.Skipped > 0 {
		b.WriteString(fmt.Sprintf("Skipped: %d malformed rows\n", p.Skipped))
	}
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(p.Cols)))
	b.WriteString("[SCHEMA]\n")
	for _, c := range p.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s (%s): %s (non-null %d, missing %.1f%%)", c.Normalized, c.Name, c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case "numeric":
			b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
		case "categorical":
			parts := make([]string, len(c.TopValues))
			for i, kv := range c.TopValues {
				parts[i] = fmt.Sprintf("%s(%d)", kv.Value, kv.Count)
			}
			b.WriteString(" — top: " + strings.Join(parts, ", "))
			if c.Unique > len(c.TopValues) {
				b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
