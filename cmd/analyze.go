package cmd

import (
	"fmt"

	"github.com/MatheusFeliciano0904/Analise-Estatistica-Evolucao-Saude-Indigena/internal/analysis"
	cfgpkg "github.com/MatheusFeliciano0904/Analise-Estatistica-Evolucao-Saude-Indigena/internal/config"
	"github.com/spf13/cobra"
)

var (
	anaOutputDir    string
	anaMaxRows      int
	anaSampleRows   int
	anaDelimiter    string
	anaEncoding     string
	anaSymptom      string
	anaAgeThreshold float64
	anaQuantile     float64
	anaCompare      []int
	anaNoPlots      bool
	anaSaveReport   bool
	anaSheet        string
	anaSpaceRepl    string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path[=year]...]",
	Short: "Run the full analysis over yearly exports",
	Long: `Loads every input (from the arguments or input_paths in the config), prints the
descriptive report with both hypothesis tests and the probability estimates, and writes the
PNG charts to the output directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := analyzeConfig(cmd, args)
		if err != nil {
			return err
		}
		res, err := analysis.Run(cmd.Context(), c)
		if err != nil {
			return err
		}
		// Outputs are written after the report is complete so a failed load leaves nothing behind.
		written, werr := res.WriteOutputs(c, anaSaveReport)
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, res.Report.Markdown())
		for _, p := range written {
			okf(out, "Wrote %s", p)
		}
		return werr
	},
}

// analyzeConfig copies the loaded config and applies positional inputs and
// any flags that were set explicitly.
func analyzeConfig(cmd *cobra.Command, args []string) (*cfgpkg.Global, error) {
	base, err := ensureConfig()
	if err != nil {
		return nil, err
	}
	c := *base
	if len(args) > 0 {
		c.InputPaths = args
	}
	f := cmd.Flags()
	if f.Changed("output-dir") {
		c.OutputDir = anaOutputDir
	}
	if f.Changed("max-rows") {
		c.MaxRows = anaMaxRows
	}
	if f.Changed("sample-rows") {
		c.SampleRows = anaSampleRows
	}
	if f.Changed("delimiter") {
		c.Delimiter = anaDelimiter
	}
	if f.Changed("encoding") {
		c.Encoding = anaEncoding
	}
	if f.Changed("symptom") {
		c.SymptomTarget = anaSymptom
	}
	if f.Changed("age-threshold") {
		c.AgeThreshold = anaAgeThreshold
	}
	if f.Changed("quantile") {
		c.Quantile = anaQuantile
	}
	if f.Changed("compare") {
		c.CompareYears = anaCompare
	}
	if f.Changed("no-plots") {
		c.Plots = !anaNoPlots
	}
	if f.Changed("sheet") {
		c.Sheet = anaSheet
	}
	if f.Changed("space-replacement") {
		c.SpaceReplacement = anaSpaceRepl
	}
	return &c, nil
}

// addLoadFlags registers the input flags shared by every command that reads exports.
func addLoadFlags(c *cobra.Command) {
	c.Flags().IntVar(&anaMaxRows, "max-rows", 5000, "maximum rows read per file (0 = unlimited)")
	c.Flags().StringVar(&anaDelimiter, "delimiter", ";", "field delimiter: ';' | ',' | '|' | 'tab'")
	c.Flags().StringVar(&anaEncoding, "encoding", "latin1", "text encoding: latin1 | utf8")
	c.Flags().StringVar(&anaSheet, "sheet", "", "XLSX: sheet name (default first sheet)")
	c.Flags().StringVar(&anaSpaceRepl, "space-replacement", "", "replace spaces in column names with this string (default removes them)")
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	addLoadFlags(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputDir, "output-dir", "o", "resultados", "directory for charts and saved reports")
	analyzeCmd.Flags().IntVar(&anaSampleRows, "sample-rows", 5, "leading rows shown per file")
	analyzeCmd.Flags().StringVar(&anaSymptom, "symptom", "febre", "symptom searched by the z-test (case-insensitive substring)")
	analyzeCmd.Flags().Float64Var(&anaAgeThreshold, "age-threshold", 35, "threshold for P(age >= threshold)")
	analyzeCmd.Flags().Float64Var(&anaQuantile, "quantile", 0.75, "quantile of symptom_count used for P(symptom_count > q)")
	analyzeCmd.Flags().IntSliceVar(&anaCompare, "compare", nil, "two years compared by the tests, e.g. 2022,2024 (default earliest and latest)")
	analyzeCmd.Flags().BoolVar(&anaNoPlots, "no-plots", false, "skip PNG charts")
	analyzeCmd.Flags().BoolVar(&anaSaveReport, "save-report", false, "also write report.md and report.json to the output directory")
}
