package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	cfgpkg "github.com/MatheusFeliciano0904/Analise-Estatistica-Evolucao-Saude-Indigena/internal/config"
	"github.com/MatheusFeliciano0904/Analise-Estatistica-Evolucao-Saude-Indigena/internal/dataset"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set gripestat configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "input_paths: %s\n", strings.Join(c.InputPaths, ", "))
		fmt.Fprintf(w, "output_dir: %s\n", c.OutputDir)
		fmt.Fprintln(w, "column_map:")
		keys := make([]string, 0, len(c.ColumnMap))
		for k := range c.ColumnMap {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %s\n", k, c.ColumnMap[k])
		}
		fmt.Fprintf(w, "symptom_target: %s\n", c.SymptomTarget)
		fmt.Fprintf(w, "age_threshold: %g\n", c.AgeThreshold)
		fmt.Fprintf(w, "quantile: %g\n", c.Quantile)
		if len(c.CompareYears) > 0 {
			fmt.Fprintf(w, "compare_years: %v\n", c.CompareYears)
		}
		fmt.Fprintf(w, "max_rows: %d\n", c.MaxRows)
		fmt.Fprintf(w, "sample_rows: %d\n", c.SampleRows)
		fmt.Fprintf(w, "delimiter: %s\n", c.Delimiter)
		fmt.Fprintf(w, "encoding: %s\n", c.Encoding)
		if c.SpaceReplacement != "" {
			fmt.Fprintf(w, "space_replacement: %s\n", c.SpaceReplacement)
		}
		if c.Sheet != "" {
			fmt.Fprintf(w, "sheet: %s\n", c.Sheet)
		}
		fmt.Fprintf(w, "plots: %t\n", c.Plots)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long: `Set a config value and save to disk. Lists (input_paths, compare_years) are
comma-separated; column_map entries are set as column_map.<field>.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		next := *c
		next.ColumnMap = make(map[string]string, len(c.ColumnMap))
		for k, v := range c.ColumnMap {
			next.ColumnMap[k] = v
		}
		if err := setKey(&next, key, val); err != nil {
			return err
		}
		if err := validateSettable(&next); err != nil {
			return err
		}
		if err := cfgpkg.Save(&next, cfgFile); err != nil {
			return err
		}
		cfg = &next
		okf(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func setKey(c *cfgpkg.Global, key, val string) error {
	if field, ok := strings.CutPrefix(key, "column_map."); ok {
		for _, f := range dataset.Fields {
			if f == field {
				c.ColumnMap[field] = val
				return nil
			}
		}
		return fmt.Errorf("unknown column_map field: %s (use %s)", field, strings.Join(dataset.Fields, "|"))
	}
	switch key {
	case "input_paths":
		c.InputPaths = splitList(val)
	case "output_dir":
		c.OutputDir = val
	case "symptom_target":
		c.SymptomTarget = val
	case "age_threshold":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for age_threshold: %w", err)
		}
		c.AgeThreshold = f
	case "quantile":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for quantile: %w", err)
		}
		c.Quantile = f
	case "compare_years":
		var years []int
		for _, s := range splitList(val) {
			y, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("invalid int in compare_years: %v", s)
			}
			years = append(years, y)
		}
		c.CompareYears = years
	case "max_rows":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for max_rows: %w", err)
		}
		c.MaxRows = i
	case "sample_rows":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for sample_rows: %w", err)
		}
		c.SampleRows = i
	case "delimiter":
		c.Delimiter = val
	case "encoding":
		c.Encoding = strings.ToLower(val)
	case "space_replacement":
		c.SpaceReplacement = val
	case "sheet":
		c.Sheet = val
	case "plots":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for plots: %w", err)
		}
		c.Plots = b
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

// validateSettable validates c, tolerating an empty input list since inputs are
// usually given on the command line.
func validateSettable(c *cfgpkg.Global) error {
	probe := *c
	if len(probe.InputPaths) == 0 {
		probe.InputPaths = []string{"-"}
	}
	return cfgpkg.Validate(&probe)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
