package dataset

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"gopkg.in/guregu/null.v3"
)

// Logical fields bound from source columns.
const (
	FieldAge        = "age"
	FieldSex        = "sex"
	FieldSymptoms   = "symptoms"
	FieldOutcome    = "outcome"
	FieldNotifiedAt = "notified_at"
)

// Fields lists every logical field in display order.
var Fields = []string{FieldAge, FieldSex, FieldSymptoms, FieldOutcome, FieldNotifiedAt}

// Schema declares which normalized source column feeds each logical field.
// It is checked once per file; fields whose column is absent stay null.
type Schema struct {
	Columns          map[string]string
	SpaceReplacement string
}

// Observation is one notification record.
type Observation struct {
	Age        null.Float
	Sex        null.String
	Symptoms   null.String
	Year       int
	Outcome    null.String
	NotifiedAt null.Time
	// SymptomCount is null only when the file has no symptom column.
	SymptomCount null.Int
}

// YearInfo describes what one source contributed to a table.
type YearInfo struct {
	Year    int
	Source  string
	Columns []string
	Rows    int
	Skipped int
	// Truncated is set when the row cap cut the file short.
	Truncated bool
	// Present holds the logical fields this source carried.
	Present map[string]bool
	Head    [][]string
}

// Table is an ordered set of observations plus per-source metadata.
type Table struct {
	Rows    []Observation
	Sources []YearInfo
}

// Bind resolves the schema against raw's normalized header and converts each
// row into an Observation tagged with year.
func Bind(raw *Raw, schema Schema, year int, sampleRows int) (*Table, error) {
	if year <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoYear, raw.Name)
	}
	cols := NormalizeColumns(raw.Header, schema.SpaceReplacement)
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		if _, dup := index[c]; !dup {
			index[c] = i
		}
	}
	pos := make(map[string]int, len(Fields))
	present := make(map[string]bool, len(Fields))
	for _, f := range Fields {
		name, ok := schema.Columns[f]
		if !ok {
			continue
		}
		if i, ok := index[NormalizeColumn(name, schema.SpaceReplacement)]; ok {
			pos[f] = i
			present[f] = true
		}
	}
	cell := func(row []string, field string) (string, bool) {
		i, ok := pos[field]
		if !ok {
			return "", false
		}
		v := strings.TrimSpace(row[i])
		return v, v != ""
	}

	out := make([]Observation, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		o := Observation{Year: year}
		if v, ok := cell(row, FieldAge); ok {
			if x, ok := ParseNumeric(v); ok {
				o.Age = null.FloatFrom(x)
			}
		}
		if v, ok := cell(row, FieldSex); ok {
			o.Sex = null.StringFrom(v)
		}
		if v, ok := cell(row, FieldOutcome); ok {
			o.Outcome = null.StringFrom(v)
		}
		if v, ok := cell(row, FieldNotifiedAt); ok {
			if ts, ok := ParseTime(v); ok {
				o.NotifiedAt = null.TimeFrom(ts)
			}
		}
		if present[FieldSymptoms] {
			v, ok := cell(row, FieldSymptoms)
			o.Symptoms = null.NewString(v, ok)
			o.SymptomCount = null.IntFrom(int64(CountSymptoms(o.Symptoms)))
		}
		out = append(out, o)
	}

	n := sampleRows
	if n > len(raw.Rows) {
		n = len(raw.Rows)
	}
	head := make([][]string, n)
	for i := 0; i < n; i++ {
		head[i] = append([]string(nil), raw.Rows[i]...)
	}
	info := YearInfo{
		Year:      year,
		Source:    raw.Name,
		Columns:   cols,
		Rows:      len(out),
		Skipped:   raw.Skipped,
		Truncated: raw.Truncated,
		Present:   present,
		Head:      head,
	}
	return &Table{Rows: out, Sources: []YearInfo{info}}, nil
}

// Load reads src from disk and binds it to schema.
func Load(src Source, schema Schema, opt LoadOptions) (*Table, error) {
	raw, err := ReadRaw(src.Path, opt)
	if err != nil {
		return nil, err
	}
	return Bind(raw, schema, src.Year, opt.SampleRows)
}

// CountSymptoms counts the non-empty comma-separated tokens of s. Missing
// and empty text both count 0.
func CountSymptoms(s null.String) int {
	if !s.Valid {
		return 0
	}
	n := 0
	for _, tok := range strings.Split(s.String, ",") {
		if strings.TrimSpace(tok) != "" {
			n++
		}
	}
	return n
}

// PresentFields returns the union of logical fields carried by any source.
func (t *Table) PresentFields() []string {
	var out []string
	for _, f := range Fields {
		for _, s := range t.Sources {
			if s.Present[f] {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// Years returns the distinct year tags in ascending order.
func (t *Table) Years() []int {
	seen := map[int]struct{}{}
	for _, s := range t.Sources {
		seen[s.Year] = struct{}{}
	}
	for _, o := range t.Rows {
		seen[o.Year] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for y := range seen {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// FilterYear returns the rows tagged with year, sharing no storage with t.
func (t *Table) FilterYear(year int) *Table {
	out := &Table{}
	for _, o := range t.Rows {
		if o.Year == year {
			out.Rows = append(out.Rows, o)
		}
	}
	for _, s := range t.Sources {
		if s.Year == year {
			out.Sources = append(out.Sources, s)
		}
	}
	return out
}

// Ages returns the age column with NaN for missing values.
func (t *Table) Ages() []float64 {
	out := make([]float64, len(t.Rows))
	for i, o := range t.Rows {
		if o.Age.Valid {
			out[i] = o.Age.Float64
		} else {
			out[i] = nan
		}
	}
	return out
}

// SymptomCounts returns symptom_count with NaN where the column was absent.
func (t *Table) SymptomCounts() []float64 {
	out := make([]float64, len(t.Rows))
	for i, o := range t.Rows {
		if o.SymptomCount.Valid {
			out[i] = float64(o.SymptomCount.Int64)
		} else {
			out[i] = nan
		}
	}
	return out
}

// SymptomTexts returns the raw symptom text column.
func (t *Table) SymptomTexts() []null.String {
	out := make([]null.String, len(t.Rows))
	for i, o := range t.Rows {
		out[i] = o.Symptoms
	}
	return out
}

// YearTags returns the year of every row, aligned with the value columns.
func (t *Table) YearTags() []int {
	out := make([]int, len(t.Rows))
	for i, o := range t.Rows {
		out[i] = o.Year
	}
	return out
}

// SexCounts tallies non-missing sex values per year.
func (t *Table) SexCounts() map[int]map[string]int {
	out := map[int]map[string]int{}
	for _, o := range t.Rows {
		if !o.Sex.Valid {
			continue
		}
		m := out[o.Year]
		if m == nil {
			m = map[string]int{}
			out[o.Year] = m
		}
		m[o.Sex.String]++
	}
	return out
}

// ParseTime parses the notification dates seen in the exports. Slash dates
// are read day first (dd/mm/yyyy).
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	ts, err := dateparse.ParseAny(s, dateparse.PreferMonthFirst(false))
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// ParseNumeric accepts '.' or ',' as the decimal separator and drops
// thousands separators when both appear. Only finite values are accepted.
func ParseNumeric(s string) (float64, bool) {
	raw := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	raw = strings.ReplaceAll(raw, "\u00a0", "")
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	switch {
	case cpos >= 0 && dpos >= 0 && cpos > dpos:
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.Replace(raw, ",", ".", 1)
	case cpos >= 0 && dpos >= 0:
		raw = strings.ReplaceAll(raw, ",", "")
	case cpos >= 0:
		raw = strings.Replace(raw, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
