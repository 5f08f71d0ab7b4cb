package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	cfgpkg "github.com/MatheusFeliciano0904/Analise-Estatistica-Evolucao-Saude-Indigena/internal/config"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#3FB950"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#D29922"))
	errStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
)

var rootCmd = &cobra.Command{
	Use:   "gripestat",
	Short: "gripestat: statistics over flu-like illness notification exports",
	Long: `gripestat loads yearly "Síndrome Gripal" notification exports, normalizes and merges them,
prints descriptive statistics, runs a Welch t-test on age and a two-proportion z-test on a
symptom, estimates two empirical probabilities and renders PNG charts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(cmd.ErrOrStderr())
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("✗ Error:"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.gripestat/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal here; commands that need config call ensureConfig and fail there.
		warnf(os.Stderr, "failed to load config: %v", err)
		return
	}
	cfg = c
}

// ensureConfig returns the loaded configuration, loading it on first use.
func ensureConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}

func setupLogging(w io.Writer) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func okf(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, okStyle.Render("✓"), fmt.Sprintf(format, args...))
}

func warnf(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, warnStyle.Render("⚠ Warning:"), fmt.Sprintf(format, args...))
}
