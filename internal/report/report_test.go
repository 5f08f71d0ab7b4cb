package report

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MatheusFeliciano0904/Analise-Estatistica-Evolucao-Saude-Indigena/internal/stats"
)

func sampleReport() *Report {
	nan := math.NaN()
	return &Report{
		RunID: "run-1",
		Rows:  4,
		Years: []int{2023, 2024},
		Sources: []Source{
			{Year: 2023, Name: "sg_2023.csv", Rows: 2, Skipped: 1, Columns: []string{"idade", "sexo"}, Head: [][]string{{"30", "F"}}},
			{Year: 2024, Name: "sg_2024.csv", Rows: 2, Columns: []string{"idade", "sexo"}},
		},
		Age: stats.Summary{Count: 4, Mean: 45},
		AgeByYear: []stats.GroupSummary{
			{Key: 2023, Summary: stats.Summary{Count: 2, Mean: 35}},
			{Key: 2024, Summary: stats.Summary{Count: 0, Mean: nan, Std: nan}},
		},
		SexByYear: map[int]map[string]int{2023: {"F": 1, "M": 1}},
		TTest:     &TTest{YearA: 2023, YearB: 2024, Result: stats.TTestResult{T: -2.5, DF: 3.1, P: 0.04, Reject: true}},
		ZTest:     &ZTest{Symptom: "febre", YearA: 2023, YearB: 2024, X1: 1, N1: 2, X2: 2, N2: 2, Result: stats.ZTestResult{P1: 0.5, P2: 1, Pooled: 0.75}},
		Probabilities: []Probability{
			{Label: "P(age >= 35)", Value: 0.5},
		},
		Warnings: []string{"symptom column missing for 2024"},
	}
}

func TestMarkdownSections(t *testing.T) {
	md := sampleReport().Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"Run: run-1",
		"Years: 2023, 2024",
		"- 2023: sg_2023.csv (rows 2, columns 2, skipped 1 malformed)",
		"[HEAD 2023]",
		"| idade | sexo |",
		"[AGE BY YEAR]",
		"| 2023 | 2 | 35 |",
		"| 2024 | 0 | NaN | NaN |",
		"[SEX BY YEAR]",
		"- 2023: F(1), M(1)",
		"Welch t-test, age 2023 vs 2024",
		"reject H0 at α=0.05",
		"Two-proportion z-test, \"febre\" 2023 vs 2024: 1/2 (0.5000) vs 2/2 (1.0000)",
		"fail to reject H0",
		"- P(age >= 35) = 0.5000",
		"[NOTES]",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "[HEAD 2024]") {
		t.Fatalf("empty head should not render:\n%s", md)
	}
}

func TestJSONMapsNaNToNull(t *testing.T) {
	b, err := sampleReport().JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, b)
	}
	groups := doc["age_by_year"].([]any)
	second := groups[1].(map[string]any)
	if second["mean"] != nil {
		t.Fatalf("NaN mean should be null, got %v", second["mean"])
	}
	if doc["run_id"] != "run-1" {
		t.Fatalf("run_id = %v", doc["run_id"])
	}
	zt := doc["two_proportion_z_test"].(map[string]any)
	if zt["pooled"].(float64) != 0.75 {
		t.Fatalf("pooled = %v", zt["pooled"])
	}
}

func TestSaveWritesBothFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "resultados")
	paths, err := sampleReport().Save(dir)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %v", paths)
	}
	for _, p := range paths {
		if fi, err := os.Stat(p); err != nil || fi.Size() == 0 {
			t.Fatalf("missing or empty %s: %v", p, err)
		}
	}
}

func TestWritePlots(t *testing.T) {
	dir := t.TempDir()
	data := PlotData{
		Ages: []float64{20, 35, math.NaN(), 50, 61, 18, 44},
		AgeByYear: map[int][]float64{
			2022: {20, 35, 50},
			2024: {61, 18, 44, math.NaN()},
		},
		SexByYear: map[int]map[string]int{
			2022: {"Feminino": 2, "Masculino": 1},
			2024: {"Feminino": 1, "Masculino": 2},
		},
	}
	written, warnings, err := WritePlots(dir, data)
	if err != nil {
		t.Fatalf("WritePlots: %v", err)
	}
	if len(warnings) != 0 || len(written) != 3 {
		t.Fatalf("written=%v warnings=%v", written, warnings)
	}
	for _, name := range []string{AgeHistogramFile, AgeBoxplotFile, SexByYearFile} {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if len(b) < 8 || string(b[1:4]) != "PNG" {
			t.Fatalf("%s is not a PNG", name)
		}
	}
}

func TestWritePlotsSkipsEmptyCharts(t *testing.T) {
	dir := t.TempDir()
	written, warnings, err := WritePlots(dir, PlotData{Ages: []float64{math.NaN()}})
	if err != nil {
		t.Fatalf("WritePlots: %v", err)
	}
	if len(written) != 0 || len(warnings) != 3 {
		t.Fatalf("written=%v warnings=%v", written, warnings)
	}
}
