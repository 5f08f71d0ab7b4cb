package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/MatheusFeliciano0904/Analise-Estatistica-Evolucao-Saude-Indigena/internal/stats"
)

// Report is the console-friendly result of one analysis run.
type Report struct {
	RunID       string
	GeneratedAt time.Time
	Rows        int
	Years       []int
	Fields      []string
	Sources     []Source

	Age           stats.Summary
	AgeByYear     []stats.GroupSummary
	SymptomByYear []stats.GroupSummary
	SexByYear     map[int]map[string]int

	TTest         *TTest
	ZTest         *ZTest
	Probabilities []Probability

	Plots    []string
	Warnings []string
}

// Source summarizes one loaded input.
type Source struct {
	Year      int
	Name      string
	Rows      int
	Skipped   int
	Truncated bool
	Columns   []string
	Head      [][]string
}

// TTest is the Welch comparison of age between two years.
type TTest struct {
	YearA, YearB int
	Result       stats.TTestResult
}

// ZTest is the symptom-presence comparison between two years.
type ZTest struct {
	Symptom      string
	YearA, YearB int
	X1, N1       int
	X2, N2       int
	Result       stats.ZTestResult
}

// Probability is one empirical probability estimate.
type Probability struct {
	Label string
	Value float64
}

// Markdown renders the report in bracketed sections for the console.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.RunID != "" {
		b.WriteString(fmt.Sprintf("Run: %s\n", r.RunID))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	if len(r.Years) > 0 {
		b.WriteString(fmt.Sprintf("Years: %s\n", joinInts(r.Years, ", ")))
	}
	if len(r.Fields) > 0 {
		b.WriteString(fmt.Sprintf("Fields: %s\n", strings.Join(r.Fields, ", ")))
	}
	for _, s := range r.Sources {
		b.WriteString(fmt.Sprintf("- %d: %s (rows %d, columns %d", s.Year, safeVal(s.Name), s.Rows, len(s.Columns)))
		if s.Skipped > 0 {
			b.WriteString(fmt.Sprintf(", skipped %d malformed", s.Skipped))
		}
		b.WriteString(")\n")
	}

	if len(r.Sources) > 0 {
		b.WriteString("\n[COLUMNS]\n")
		for _, s := range r.Sources {
			b.WriteString(fmt.Sprintf("- %d: %s\n", s.Year, strings.Join(s.Columns, ", ")))
		}
	}

	for _, s := range r.Sources {
		if len(s.Head) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("\n[HEAD %d]\n", s.Year))
		writeTable(&b, s.Columns, s.Head)
	}

	b.WriteString("\n[AGE]\n")
	writeSummaries(&b, "all", []stats.GroupSummary{{Summary: r.Age}})
	if len(r.AgeByYear) > 0 {
		b.WriteString("\n[AGE BY YEAR]\n")
		writeSummaries(&b, "year", r.AgeByYear)
	}
	if len(r.SymptomByYear) > 0 {
		b.WriteString("\n[SYMPTOM COUNT BY YEAR]\n")
		writeSummaries(&b, "year", r.SymptomByYear)
	}
	if len(r.SexByYear) > 0 {
		b.WriteString("\n[SEX BY YEAR]\n")
		for _, y := range sortedKeys(r.SexByYear) {
			counts := r.SexByYear[y]
			cats := make([]string, 0, len(counts))
			for k := range counts {
				cats = append(cats, k)
			}
			sort.Strings(cats)
			parts := make([]string, len(cats))
			for i, c := range cats {
				parts[i] = fmt.Sprintf("%s(%d)", safeVal(c), counts[c])
			}
			b.WriteString(fmt.Sprintf("- %d: %s\n", y, strings.Join(parts, ", ")))
		}
	}

	if r.TTest != nil || r.ZTest != nil {
		b.WriteString("\n[HYPOTHESIS TESTS]\n")
		if t := r.TTest; t != nil {
			b.WriteString(fmt.Sprintf("- Welch t-test, age %d vs %d: mean %.4g vs %.4g, t=%.4f, df=%.2f, p=%.4g — %s\n",
				t.YearA, t.YearB, t.Result.MeanA, t.Result.MeanB, t.Result.T, t.Result.DF, t.Result.P, decision(t.Result.Reject)))
		}
		if z := r.ZTest; z != nil {
			b.WriteString(fmt.Sprintf("- Two-proportion z-test, %q %d vs %d: %d/%d (%.4f) vs %d/%d (%.4f), pooled %.4f, z=%.4f, p=%.4g — %s\n",
				z.Symptom, z.YearA, z.YearB, z.X1, z.N1, z.Result.P1, z.X2, z.N2, z.Result.P2, z.Result.Pooled, z.Result.Z, z.Result.P, decision(z.Result.Reject)))
		}
	}

	if len(r.Probabilities) > 0 {
		b.WriteString("\n[PROBABILITIES]\n")
		for _, p := range r.Probabilities {
			b.WriteString(fmt.Sprintf("- %s = %.4f\n", p.Label, p.Value))
		}
	}
	if len(r.Plots) > 0 {
		b.WriteString("\n[PLOTS]\n")
		for _, p := range r.Plots {
			b.WriteString("- " + p + "\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Warn appends a note shown at the end of the report.
func (r *Report) Warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func decision(reject bool) string {
	if reject {
		return fmt.Sprintf("reject H0 at α=%.2f", stats.Alpha)
	}
	return fmt.Sprintf("fail to reject H0 at α=%.2f", stats.Alpha)
}

func writeSummaries(b *strings.Builder, keyName string, rows []stats.GroupSummary) {
	b.WriteString(fmt.Sprintf("| %s | count | mean | std | min | 25%% | 50%% | 75%% | max |\n", keyName))
	b.WriteString("| --- | --- | --- | --- | --- | --- | --- | --- | --- |\n")
	for _, g := range rows {
		key := "all"
		if keyName != "all" {
			key = fmt.Sprintf("%d", g.Key)
		}
		s := g.Summary
		b.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s | %s | %s | %s | %s |\n",
			key, s.Count, num(s.Mean), num(s.Std), num(s.Min), num(s.Q25), num(s.Median), num(s.Q75), num(s.Max)))
	}
}

func writeTable(b *strings.Builder, header []string, rows [][]string) {
	b.WriteString("| ")
	for i, c := range header {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(safeName(c))
	}
	b.WriteString(" |\n| ")
	for i := range header {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString("---")
	}
	b.WriteString(" |\n")
	for _, row := range rows {
		b.WriteString("| ")
		for i := range header {
			if i > 0 {
				b.WriteString(" | ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			if r := []rune(val); len(r) > 40 {
				val = string(r[:37]) + "..."
			}
			b.WriteString(safeVal(val))
		}
		b.WriteString(" |\n")
	}
}

func num(x float64) string {
	if math.IsNaN(x) {
		return "NaN"
	}
	return fmt.Sprintf("%.4g", x)
}

func joinInts(v []int, sep string) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%d", x)
	}
	return strings.Join(parts, sep)
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}
func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

// SummaryTable renders grouped summaries under a bracketed title.
func SummaryTable(title string, groups []stats.GroupSummary) string {
	var b strings.Builder
	b.WriteString("[" + strings.ToUpper(title) + "]\n")
	writeSummaries(&b, "year", groups)
	return b.String()
}
