package cmd

import (
	"fmt"

	"github.com/MatheusFeliciano0904/Analise-Estatistica-Evolucao-Saude-Indigena/internal/analysis"
	cfgpkg "github.com/MatheusFeliciano0904/Analise-Estatistica-Evolucao-Saude-Indigena/internal/config"
	"github.com/MatheusFeliciano0904/Analise-Estatistica-Evolucao-Saude-Indigena/internal/report"
	"github.com/MatheusFeliciano0904/Analise-Estatistica-Evolucao-Saude-Indigena/internal/stats"
	"github.com/spf13/cobra"
)

var descColumn string

var describeCmd = &cobra.Command{
	Use:   "describe [path[=year]...]",
	Short: "Print a descriptive table grouped by year",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := analyzeConfig(cmd, args)
		if err != nil {
			return err
		}
		if err := cfgpkg.Validate(c); err != nil {
			return err
		}
		tbl, err := analysis.LoadAll(cmd.Context(), c)
		if err != nil {
			return err
		}
		var values []float64
		switch descColumn {
		case "age":
			values = tbl.Ages()
		case "symptom_count":
			values = tbl.SymptomCounts()
		default:
			return fmt.Errorf("unsupported --column: %s (use age|symptom_count)", descColumn)
		}
		groups, err := stats.DescribeBy(cmd.Context(), values, tbl.YearTags())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), report.SummaryTable(descColumn+" by year", groups))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	addLoadFlags(describeCmd)
	describeCmd.Flags().StringVar(&descColumn, "column", "age", "column to describe: age | symptom_count")
}
