package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"unicode"

	"github.com/MatheusFeliciano0904/Analise-Estatistica-Evolucao-Saude-Indigena/internal/dataset"
	"github.com/MatheusFeliciano0904/Analise-Estatistica-Evolucao-Saude-Indigena/internal/utils"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Inputs, each "path" or "path=year".
	InputPaths []string `mapstructure:"input_paths" yaml:"input_paths" validate:"min=1,dive,required"`
	OutputDir  string   `mapstructure:"output_dir" yaml:"output_dir" validate:"required"`
	// ColumnMap maps logical fields to normalized source column names.
	ColumnMap        map[string]string `mapstructure:"column_map" yaml:"column_map" validate:"required,dive,keys,oneof=age sex symptoms outcome notified_at,endkeys,required"`
	SymptomTarget    string            `mapstructure:"symptom_target" yaml:"symptom_target" validate:"required"`
	AgeThreshold     float64           `mapstructure:"age_threshold" yaml:"age_threshold" validate:"gte=0"`
	Quantile         float64           `mapstructure:"quantile" yaml:"quantile" validate:"gte=0,lte=1"`
	CompareYears     []int             `mapstructure:"compare_years" yaml:"compare_years" validate:"omitempty,len=2,dive,gt=0"`
	MaxRows          int               `mapstructure:"max_rows" yaml:"max_rows" validate:"gte=0"`
	SampleRows       int               `mapstructure:"sample_rows" yaml:"sample_rows" validate:"gte=0"`
	Delimiter        string            `mapstructure:"delimiter" yaml:"delimiter" validate:"required"`
	Encoding         string            `mapstructure:"encoding" yaml:"encoding" validate:"oneof=latin1 utf8"`
	SpaceReplacement string            `mapstructure:"space_replacement" yaml:"space_replacement"`
	Sheet            string            `mapstructure:"sheet" yaml:"sheet"`
	Plots            bool              `mapstructure:"plots" yaml:"plots"`
}

// DefaultColumnMap returns the column names used by the São Paulo exports
// after normalization.
func DefaultColumnMap() map[string]string {
	return map[string]string{
		dataset.FieldAge:        "idade",
		dataset.FieldSex:        "sexo",
		dataset.FieldSymptoms:   "sintomas",
		dataset.FieldOutcome:    "evolucaocaso",
		dataset.FieldNotifiedAt: "datanotificacao",
	}
}

func configPath(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	dir, err := utils.HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.gripestat/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path, err := configPath(cfgFile)
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (applied by the caller) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("GRIPESTAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("input_paths", []string{})
	v.SetDefault("output_dir", "resultados")
	v.SetDefault("column_map", DefaultColumnMap())
	v.SetDefault("symptom_target", "febre")
	v.SetDefault("age_threshold", 35.0)
	v.SetDefault("quantile", 0.75)
	// compare_years has no default so an unset list stays nil.
	_ = v.BindEnv("compare_years")
	v.SetDefault("max_rows", 5000)
	v.SetDefault("sample_rows", 5)
	v.SetDefault("delimiter", ";")
	v.SetDefault("encoding", "latin1")
	v.SetDefault("space_replacement", "")
	v.SetDefault("sheet", "")
	v.SetDefault("plots", true)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := utils.HomeDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(cfgFile != "" && os.IsNotExist(err)) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// A partial column_map in the file only overrides the fields it names.
	merged := DefaultColumnMap()
	for k, val := range c.ColumnMap {
		merged[strings.ToLower(strings.TrimSpace(k))] = val
	}
	c.ColumnMap = merged
	// An empty list in the file means "not set"; len=2 applies only when present.
	if len(c.CompareYears) == 0 {
		c.CompareYears = nil
	}
	return &c, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the configuration once, before any input is read.
func Validate(c *Global) error {
	if c == nil {
		return errors.New("no configuration loaded")
	}
	if err := validate.Struct(c); err != nil {
		return formatValidation(err)
	}
	switch c.Delimiter {
	case ";", ",", "|", "tab", `\t`:
	default:
		return fmt.Errorf("invalid config: delimiter: unsupported %q (use ';' | ',' | '|' | 'tab')", c.Delimiter)
	}
	// Whitespace in the replacement would make column normalization non-idempotent.
	if strings.ContainsFunc(c.SpaceReplacement, unicode.IsSpace) {
		return fmt.Errorf("invalid config: space_replacement: must not contain whitespace")
	}
	return nil
}

func formatValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// DelimiterRune returns the configured delimiter as a rune.
func (c *Global) DelimiterRune() rune {
	switch c.Delimiter {
	case "tab", `\t`:
		return '\t'
	case "":
		return ';'
	}
	return []rune(c.Delimiter)[0]
}

// Schema builds the dataset schema declared by this configuration.
func (c *Global) Schema() dataset.Schema {
	return dataset.Schema{Columns: c.ColumnMap, SpaceReplacement: c.SpaceReplacement}
}

// LoadOptions builds the loader options declared by this configuration.
func (c *Global) LoadOptions() dataset.LoadOptions {
	return dataset.LoadOptions{
		Delimiter:  c.DelimiterRune(),
		Encoding:   c.Encoding,
		MaxRows:    c.MaxRows,
		SampleRows: c.SampleRows,
		Sheet:      c.Sheet,
	}
}
