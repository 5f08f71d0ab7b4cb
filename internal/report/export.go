package report

import (
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/MatheusFeliciano0904/Analise-Estatistica-Evolucao-Saude-Indigena/internal/stats"
	"github.com/MatheusFeliciano0904/Analise-Estatistica-Evolucao-Saude-Indigena/internal/utils"
	"gopkg.in/guregu/null.v3"
)

// File names written by Save.
const (
	MarkdownFile = "report.md"
	JSONFile     = "report.json"
)

type jsonSummary struct {
	Key    int        `json:"key,omitempty"`
	Count  int        `json:"count"`
	Mean   null.Float `json:"mean"`
	Std    null.Float `json:"std"`
	Min    null.Float `json:"min"`
	Q25    null.Float `json:"q25"`
	Median null.Float `json:"median"`
	Q75    null.Float `json:"q75"`
	Max    null.Float `json:"max"`
}

type jsonSource struct {
	Year      int      `json:"year"`
	Name      string   `json:"name"`
	Rows      int      `json:"rows"`
	Skipped   int      `json:"skipped"`
	Truncated bool     `json:"truncated"`
	Columns   []string `json:"columns"`
}

type jsonTTest struct {
	YearA  int        `json:"year_a"`
	YearB  int        `json:"year_b"`
	MeanA  null.Float `json:"mean_a"`
	MeanB  null.Float `json:"mean_b"`
	NA     int        `json:"n_a"`
	NB     int        `json:"n_b"`
	T      null.Float `json:"t"`
	DF     null.Float `json:"df"`
	P      null.Float `json:"p"`
	Reject bool       `json:"reject"`
}

type jsonZTest struct {
	Symptom string     `json:"symptom"`
	YearA   int        `json:"year_a"`
	YearB   int        `json:"year_b"`
	X1      int        `json:"x1"`
	N1      int        `json:"n1"`
	X2      int        `json:"x2"`
	N2      int        `json:"n2"`
	P1      null.Float `json:"p1"`
	P2      null.Float `json:"p2"`
	Pooled  null.Float `json:"pooled"`
	Z       null.Float `json:"z"`
	P       null.Float `json:"p"`
	Reject  bool       `json:"reject"`
}

type jsonProbability struct {
	Label string     `json:"label"`
	Value null.Float `json:"value"`
}

type jsonReport struct {
	RunID         string                 `json:"run_id"`
	GeneratedAt   time.Time              `json:"generated_at"`
	Rows          int                    `json:"rows"`
	Years         []int                  `json:"years"`
	Fields        []string               `json:"fields"`
	Sources       []jsonSource           `json:"sources"`
	Age           jsonSummary            `json:"age"`
	AgeByYear     []jsonSummary          `json:"age_by_year"`
	SymptomByYear []jsonSummary          `json:"symptom_count_by_year,omitempty"`
	SexByYear     map[int]map[string]int `json:"sex_by_year,omitempty"`
	TTest         *jsonTTest             `json:"welch_t_test,omitempty"`
	ZTest         *jsonZTest             `json:"two_proportion_z_test,omitempty"`
	Probabilities []jsonProbability      `json:"probabilities"`
	Plots         []string               `json:"plots,omitempty"`
	Warnings      []string               `json:"warnings,omitempty"`
}

// nf maps NaN and infinities to JSON null.
func nf(x float64) null.Float {
	return null.NewFloat(x, !math.IsNaN(x) && !math.IsInf(x, 0))
}

func summaryJSON(key int, s stats.Summary) jsonSummary {
	return jsonSummary{
		Key: key, Count: s.Count,
		Mean: nf(s.Mean), Std: nf(s.Std), Min: nf(s.Min),
		Q25: nf(s.Q25), Median: nf(s.Median), Q75: nf(s.Q75), Max: nf(s.Max),
	}
}

func groupsJSON(gs []stats.GroupSummary) []jsonSummary {
	out := make([]jsonSummary, len(gs))
	for i, g := range gs {
		out[i] = summaryJSON(g.Key, g.Summary)
	}
	return out
}

// JSON renders the report as indented JSON. Undefined statistics become null.
func (r *Report) JSON() ([]byte, error) {
	doc := jsonReport{
		RunID:         r.RunID,
		GeneratedAt:   r.GeneratedAt,
		Rows:          r.Rows,
		Years:         r.Years,
		Fields:        r.Fields,
		Age:           summaryJSON(0, r.Age),
		AgeByYear:     groupsJSON(r.AgeByYear),
		SymptomByYear: groupsJSON(r.SymptomByYear),
		SexByYear:     r.SexByYear,
		Plots:         r.Plots,
		Warnings:      r.Warnings,
	}
	for _, s := range r.Sources {
		doc.Sources = append(doc.Sources, jsonSource{
			Year: s.Year, Name: s.Name, Rows: s.Rows, Skipped: s.Skipped, Truncated: s.Truncated, Columns: s.Columns,
		})
	}
	if t := r.TTest; t != nil {
		doc.TTest = &jsonTTest{
			YearA: t.YearA, YearB: t.YearB,
			MeanA: nf(t.Result.MeanA), MeanB: nf(t.Result.MeanB),
			NA: t.Result.NA, NB: t.Result.NB,
			T: nf(t.Result.T), DF: nf(t.Result.DF), P: nf(t.Result.P),
			Reject: t.Result.Reject,
		}
	}
	if z := r.ZTest; z != nil {
		doc.ZTest = &jsonZTest{
			Symptom: z.Symptom, YearA: z.YearA, YearB: z.YearB,
			X1: z.X1, N1: z.N1, X2: z.X2, N2: z.N2,
			P1: nf(z.Result.P1), P2: nf(z.Result.P2), Pooled: nf(z.Result.Pooled),
			Z: nf(z.Result.Z), P: nf(z.Result.P), Reject: z.Result.Reject,
		}
	}
	for _, p := range r.Probabilities {
		doc.Probabilities = append(doc.Probabilities, jsonProbability{Label: p.Label, Value: nf(p.Value)})
	}
	return utils.PrettyJSON(doc)
}

// Save writes report.md and report.json into dir and returns their paths.
func (r *Report) Save(dir string) ([]string, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	md := filepath.Join(dir, MarkdownFile)
	if err := utils.SafeWriteFile(md, []byte(r.Markdown())); err != nil {
		return nil, fmt.Errorf("write markdown report: %w", err)
	}
	b, err := r.JSON()
	if err != nil {
		return nil, err
	}
	js := filepath.Join(dir, JSONFile)
	if err := utils.SafeWriteFile(js, b); err != nil {
		return nil, fmt.Errorf("write json report: %w", err)
	}
	return []string{md, js}, nil
}
