package analysis

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MatheusFeliciano0904/Analise-Estatistica-Evolucao-Saude-Indigena/internal/config"
	"github.com/MatheusFeliciano0904/Analise-Estatistica-Evolucao-Saude-Indigena/internal/dataset"
	"github.com/MatheusFeliciano0904/Analise-Estatistica-Evolucao-Saude-Indigena/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rows2022 = []string{
	"Data Notifica\xe7\xe3o;Idade;Sexo;Sintomas;Evolu\xe7\xe3o Caso",
	"2022-01-03;30;Feminino;Febre, Tosse;Cura",
	"2022-01-04;40;Masculino;Tosse;Cura",
	"2022-01-05;;Feminino;;",
	"2022-01-06;29;Masculino;Febre;Cura;too;many;fields",
}

var rows2024 = []string{
	"Data Notifica\xe7\xe3o;Idade;Sexo;Sintomas;Evolu\xe7\xe3o Caso",
	"2024-02-01;50;Feminino;Febre, Coriza, Tosse;Cura",
	"2024-02-02;60;Feminino;febre;Cura",
	"2024-02-03;55;Masculino;Dor de cabe\xe7a;Cura",
}

func writeInput(t *testing.T, dir, name string, rows []string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(strings.Join(rows, "\n")+"\n"), 0o644))
	return p
}

func testConfig(t *testing.T, inputs ...string) *config.Global {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.InputPaths = inputs
	cfg.OutputDir = filepath.Join(t.TempDir(), "resultados")
	return cfg
}

func TestRunComputesStatistics(t *testing.T) {
	dir := t.TempDir()
	a := writeInput(t, dir, "SG - 2022_MAIOR.csv", rows2022)
	b := writeInput(t, dir, "SG - 2024_MAIOR.csv", rows2024)
	cfg := testConfig(t, a, b)

	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	rep := res.Report

	assert.Equal(t, 6, rep.Rows)
	assert.Equal(t, []int{2022, 2024}, rep.Years)
	require.Len(t, rep.AgeByYear, 2)
	assert.InDelta(t, 35, rep.AgeByYear[0].Mean, 1e-9)
	assert.Equal(t, 2, rep.AgeByYear[0].Count)
	assert.InDelta(t, 55, rep.AgeByYear[1].Mean, 1e-9)
	assert.NotEmpty(t, rep.RunID)

	require.NotNil(t, rep.TTest)
	assert.Equal(t, 2022, rep.TTest.YearA)
	assert.Less(t, rep.TTest.Result.T, 0.0)

	require.NotNil(t, rep.ZTest)
	assert.Equal(t, 1, rep.ZTest.X1)
	assert.Equal(t, 3, rep.ZTest.N1)
	assert.Equal(t, 2, rep.ZTest.X2)
	assert.Equal(t, 3, rep.ZTest.N2)

	require.Len(t, rep.Probabilities, 2)
	assert.Equal(t, "P(age >= 35)", rep.Probabilities[0].Label)
	assert.InDelta(t, 4.0/5.0, rep.Probabilities[0].Value, 1e-12)
	// counts: 2,1,0 | 3,1,1 -> p75 = 1.75
	assert.Contains(t, rep.Probabilities[1].Label, "= 1.75")
	assert.InDelta(t, 2.0/6.0, rep.Probabilities[1].Value, 1e-12)

	md := rep.Markdown()
	assert.Contains(t, md, "skipped 1 malformed rows")
	assert.Contains(t, md, "datanotificacao, idade, sexo, sintomas, evolucaocaso")

	_, err = os.Stat(cfg.OutputDir)
	assert.True(t, os.IsNotExist(err), "Run must not create the output dir")
}

func TestRunMissingFileAbortsWithoutOutput(t *testing.T) {
	dir := t.TempDir()
	a := writeInput(t, dir, "sg_2022.csv", rows2022)
	cfg := testConfig(t, a, filepath.Join(dir, "sg_2024.csv"))

	_, err := Run(context.Background(), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, dataset.ErrFileNotFound)
	_, statErr := os.Stat(cfg.OutputDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	_, err := Run(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input_paths")
}

func TestAnalyzeSingleYearSkipsTests(t *testing.T) {
	dir := t.TempDir()
	a := writeInput(t, dir, "sg_2022.csv", rows2022)
	cfg := testConfig(t, a)
	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, res.Report.TTest)
	assert.Nil(t, res.Report.ZTest)
	assert.Contains(t, strings.Join(res.Report.Warnings, "\n"), "hypothesis tests skipped")
}

func TestAnalyzeWithoutSymptomColumn(t *testing.T) {
	dir := t.TempDir()
	a := writeInput(t, dir, "a.csv", []string{"idade;sexo", "30;F", "40;M"})
	b := writeInput(t, dir, "b.csv", []string{"idade;sexo", "50;F", "61;M"})
	cfg := testConfig(t, a+"=2023", b+"=2024")
	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	rep := res.Report
	assert.Empty(t, rep.SymptomByYear)
	require.Len(t, rep.Probabilities, 1)
	assert.Contains(t, strings.Join(rep.Warnings, "\n"), "z-test skipped")
	assert.Contains(t, strings.Join(rep.Warnings, "\n"), "no symptom data")
}

func TestAnalyzeCompareYearsOverride(t *testing.T) {
	dir := t.TempDir()
	a := writeInput(t, dir, "sg_2022.csv", rows2022)
	b := writeInput(t, dir, "sg_2024.csv", rows2024)
	cfg := testConfig(t, a, b)
	cfg.CompareYears = []int{2024, 2022}
	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, res.Report.TTest)
	assert.Equal(t, 2024, res.Report.TTest.YearA)
	assert.Greater(t, res.Report.TTest.Result.T, 0.0)
}

func TestWriteOutputs(t *testing.T) {
	dir := t.TempDir()
	a := writeInput(t, dir, "sg_2022.csv", rows2022)
	b := writeInput(t, dir, "sg_2024.csv", rows2024)
	cfg := testConfig(t, a, b)
	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)

	written, err := res.WriteOutputs(cfg, true)
	require.NoError(t, err)
	for _, name := range []string{report.AgeHistogramFile, report.AgeBoxplotFile, report.SexByYearFile, report.MarkdownFile, report.JSONFile} {
		assert.FileExists(t, filepath.Join(cfg.OutputDir, name))
	}
	assert.Len(t, written, 5)
	assert.Len(t, res.Report.Plots, 3)
}

func TestWriteOutputsPlotsDisabled(t *testing.T) {
	dir := t.TempDir()
	a := writeInput(t, dir, "sg_2022.csv", rows2022)
	cfg := testConfig(t, a)
	cfg.Plots = false
	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	written, err := res.WriteOutputs(cfg, false)
	require.NoError(t, err)
	assert.Empty(t, written)
	_, statErr := os.Stat(cfg.OutputDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestProfileRaw(t *testing.T) {
	dir := t.TempDir()
	p := writeInput(t, dir, "sg_2022.csv", rows2022)
	raw, err := dataset.ReadRaw(p, dataset.LoadOptions{})
	require.NoError(t, err)
	prof := ProfileRaw(raw, "")
	require.Len(t, prof.Cols, 5)
	assert.Equal(t, "datanotificacao", prof.Cols[0].Normalized)
	assert.Equal(t, "datetime", prof.Cols[0].Kind)
	age := prof.Cols[1]
	assert.Equal(t, "numeric", age.Kind)
	assert.Equal(t, 1, age.Missing)
	assert.InDelta(t, 35, age.Mean, 1e-9)
	sex := prof.Cols[2]
	assert.Equal(t, "categorical", sex.Kind)
	md := prof.Markdown()
	assert.Contains(t, md, "[SCHEMA]")
	assert.Contains(t, md, "- idade (Idade): numeric")
	assert.Contains(t, md, "Skipped: 1 malformed rows")
}

func TestAnalyzeSkipsZTestWhenOneYearLacksSymptoms(t *testing.T) {
	dir := t.TempDir()
	a := writeInput(t, dir, "sg_2022.csv", []string{"idade;sexo", "30;F", "40;M", "35;F"})
	b := writeInput(t, dir, "sg_2024.csv", []string{"idade;sexo;sintomas", "50;F;Febre", "60;M;febre", "55;F;Febre, Tosse"})
	cfg := testConfig(t, a, b)
	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	rep := res.Report
	assert.Nil(t, rep.ZTest)
	assert.NotNil(t, rep.TTest)
	assert.Contains(t, strings.Join(rep.Warnings, "\n"), "z-test skipped: no symptoms column for year(s) [2022]")
	// The year that has the column still gets its symptom summary.
	require.Len(t, rep.SymptomByYear, 2)
	assert.Equal(t, 3, rep.SymptomByYear[1].Count)
}
