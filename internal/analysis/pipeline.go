package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/MatheusFeliciano0904/Analise-Estatistica-Evolucao-Saude-Indigena/internal/config"
	"github.com/MatheusFeliciano0904/Analise-Estatistica-Evolucao-Saude-Indigena/internal/dataset"
	"github.com/MatheusFeliciano0904/Analise-Estatistica-Evolucao-Saude-Indigena/internal/report"
	"github.com/MatheusFeliciano0904/Analise-Estatistica-Evolucao-Saude-Indigena/internal/stats"
	"github.com/MatheusFeliciano0904/Analise-Estatistica-Evolucao-Saude-Indigena/internal/utils"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Result is a completed in-memory analysis.
type Result struct {
	Table  *dataset.Table
	Report *report.Report
}

// Sources parses every configured input into a Source.
func Sources(cfg *config.Global) ([]dataset.Source, error) {
	out := make([]dataset.Source, 0, len(cfg.InputPaths))
	for _, arg := range cfg.InputPaths {
		src, err := dataset.ParseSource(arg)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

// LoadAll loads every source concurrently and merges them in input order.
// Nothing is written to disk, so a missing file aborts with no output.
func LoadAll(ctx context.Context, cfg *config.Global) (*dataset.Table, error) {
	srcs, err := Sources(cfg)
	if err != nil {
		return nil, err
	}
	if len(srcs) == 0 {
		return nil, errors.New("no input files configured")
	}
	schema := cfg.Schema()
	opt := cfg.LoadOptions()
	tables := make([]*dataset.Table, len(srcs))
	g, ctx := errgroup.WithContext(ctx)
	for i, src := range srcs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			t, err := dataset.Load(src, schema, opt)
			if err != nil {
				return err
			}
			slog.Debug("loaded input",
				slog.String("path", src.Path),
				slog.Int("year", src.Year),
				slog.Int("rows", t.Len()),
				slog.Duration("elapsed", time.Since(start)))
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dataset.Merge(tables...), nil
}

// Run loads the configured inputs and computes every statistic. It does not
// touch the output directory; see WriteOutputs.
func Run(ctx context.Context, cfg *config.Global) (*Result, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	tbl, err := LoadAll(ctx, cfg)
	if err != nil {
		return nil, err
	}
	rep, err := Analyze(ctx, tbl, cfg)
	if err != nil {
		return nil, err
	}
	return &Result{Table: tbl, Report: rep}, nil
}

// Analyze computes the descriptive tables, both hypothesis tests and the
// probability estimates over an already merged table.
func Analyze(ctx context.Context, tbl *dataset.Table, cfg *config.Global) (*report.Report, error) {
	rep := &report.Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Rows:        tbl.Len(),
		Years:       tbl.Years(),
		Fields:      tbl.PresentFields(),
		SexByYear:   tbl.SexCounts(),
	}
	for _, s := range tbl.Sources {
		rep.Sources = append(rep.Sources, report.Source{
			Year: s.Year, Name: s.Source, Rows: s.Rows, Skipped: s.Skipped,
			Truncated: s.Truncated, Columns: s.Columns, Head: s.Head,
		})
		if s.Skipped > 0 {
			rep.Warn("%s: skipped %d malformed rows", s.Source, s.Skipped)
		}
		if s.Truncated {
			rep.Warn("%s: read only the first %d rows (max_rows)", s.Source, s.Rows)
		}
		for _, f := range dataset.Fields {
			if !s.Present[f] {
				rep.Warn("%s: no %q column for field %s", s.Source, cfg.ColumnMap[f], f)
			}
		}
	}

	ages := tbl.Ages()
	years := tbl.YearTags()
	rep.Age = stats.Describe(ages)
	byYear, err := stats.DescribeBy(ctx, ages, years)
	if err != nil {
		return nil, err
	}
	rep.AgeByYear = byYear

	counts := tbl.SymptomCounts()
	hasSymptoms := false
	for _, f := range rep.Fields {
		if f == dataset.FieldSymptoms {
			hasSymptoms = true
		}
	}
	if hasSymptoms {
		rep.SymptomByYear, err = stats.DescribeBy(ctx, counts, years)
		if err != nil {
			return nil, err
		}
	}

	yearA, yearB, ok := compareYears(cfg, rep.Years)
	if !ok {
		rep.Warn("hypothesis tests skipped: need two distinct years, have %v", rep.Years)
	} else {
		a := tbl.FilterYear(yearA)
		b := tbl.FilterYear(yearB)
		if tt, err := stats.WelchTTest(a.Ages(), b.Ages()); err != nil {
			rep.Warn("t-test skipped: %v", err)
		} else {
			rep.TTest = &report.TTest{YearA: yearA, YearB: yearB, Result: tt}
		}
		x1, n1 := stats.SymptomPresenceCount(a.SymptomTexts(), cfg.SymptomTarget)
		x2, n2 := stats.SymptomPresenceCount(b.SymptomTexts(), cfg.SymptomTarget)
		if missing := yearsWithout(dataset.FieldSymptoms, map[int]*dataset.Table{yearA: a, yearB: b}); len(missing) > 0 {
			rep.Warn("z-test skipped: no %s column for year(s) %v", dataset.FieldSymptoms, missing)
		} else if zt, err := stats.TwoProportionZTest(x1, n1, x2, n2); err != nil {
			rep.Warn("z-test skipped: %v", err)
		} else {
			rep.ZTest = &report.ZTest{
				Symptom: cfg.SymptomTarget, YearA: yearA, YearB: yearB,
				X1: x1, N1: n1, X2: x2, N2: n2, Result: zt,
			}
		}
	}

	rep.Probabilities = append(rep.Probabilities, report.Probability{
		Label: fmt.Sprintf("P(age >= %g)", cfg.AgeThreshold),
		Value: stats.EmpiricalProbability(ages, stats.AtLeast(cfg.AgeThreshold)),
	})
	cut, err := stats.Percentile(counts, cfg.Quantile)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(cut) {
		rep.Warn("symptom_count probability undefined: no symptom data")
	} else {
		rep.Probabilities = append(rep.Probabilities, report.Probability{
			Label: fmt.Sprintf("P(symptom_count > p%.4g = %.2f)", cfg.Quantile*100, cut),
			Value: stats.EmpiricalProbability(counts, stats.Above(cut)),
		})
	}
	return rep, nil
}

// yearsWithout lists, in ascending order, the years whose sources never carried field.
func yearsWithout(field string, byYear map[int]*dataset.Table) []int {
	var out []int
	for y, t := range byYear {
		if !slices.Contains(t.PresentFields(), field) {
			out = append(out, y)
		}
	}
	slices.Sort(out)
	return out
}

// compareYears picks the configured pair, or the earliest and latest years.
func compareYears(cfg *config.Global, years []int) (int, int, bool) {
	if len(cfg.CompareYears) == 2 {
		a, b := cfg.CompareYears[0], cfg.CompareYears[1]
		return a, b, a != b
	}
	if len(years) < 2 {
		return 0, 0, false
	}
	return years[0], years[len(years)-1], true
}

// WriteOutputs creates the output directory, renders the charts when
// enabled and, if saveReport is set, writes report.md and report.json.
func (r *Result) WriteOutputs(cfg *config.Global, saveReport bool) ([]string, error) {
	var written []string
	if cfg.Plots {
		if err := ensureOutputDir(cfg.OutputDir); err != nil {
			return nil, err
		}
		byYear := map[int][]float64{}
		for _, y := range r.Table.Years() {
			byYear[y] = r.Table.FilterYear(y).Ages()
		}
		plots, warnings, err := report.WritePlots(cfg.OutputDir, report.PlotData{
			Ages:      r.Table.Ages(),
			AgeByYear: byYear,
			SexByYear: r.Report.SexByYear,
		})
		r.Report.Plots = append(r.Report.Plots, plots...)
		r.Report.Warnings = append(r.Report.Warnings, warnings...)
		written = append(written, plots...)
		if err != nil {
			return written, err
		}
	}
	if saveReport {
		paths, err := r.Report.Save(cfg.OutputDir)
		written = append(written, paths...)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

func ensureOutputDir(dir string) error {
	if err := utils.EnsureDir(dir); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}
