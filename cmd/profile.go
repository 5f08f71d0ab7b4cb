package cmd

import (
	"fmt"

	"github.com/MatheusFeliciano0904/Analise-Estatistica-Evolucao-Saude-Indigena/internal/analysis"
	cfgpkg "github.com/MatheusFeliciano0904/Analise-Estatistica-Evolucao-Saude-Indigena/internal/config"
	"github.com/MatheusFeliciano0904/Analise-Estatistica-Evolucao-Saude-Indigena/internal/dataset"
	"github.com/MatheusFeliciano0904/Analise-Estatistica-Evolucao-Saude-Indigena/internal/utils"
	"github.com/spf13/cobra"
)

var profOutput string

var profileCmd = &cobra.Command{
	Use:   "profile <file>",
	Short: "Show the normalized columns of an export with inferred kinds",
	Long: `Reads one export without binding it to the schema and lists every column with its
normalized name, inferred kind and basic statistics. Use it to fill column_map.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := analyzeConfig(cmd, args)
		if err != nil {
			return err
		}
		if err := cfgpkg.Validate(c); err != nil {
			return err
		}
		src, err := dataset.ParseSource(args[0])
		if err != nil {
			// The year is irrelevant for profiling.
			src = dataset.Source{Path: args[0]}
		}
		raw, err := dataset.ReadRaw(src.Path, c.LoadOptions())
		if err != nil {
			return err
		}
		md := analysis.ProfileRaw(raw, c.SpaceReplacement).Markdown()
		if profOutput != "" {
			if err := utils.SafeWriteFile(profOutput, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			okf(cmd.OutOrStdout(), "Wrote profile to %s", profOutput)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	addLoadFlags(profileCmd)
	profileCmd.Flags().StringVarP(&profOutput, "output", "o", "", "optional path to write the profile (Markdown)")
}
