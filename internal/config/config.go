package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	DatasetPath string `mapstructure:"dataset_path" yaml:"dataset_path"`
	// XLSX only: worksheet name (first sheet if empty)
	DatasetSheet string `mapstructure:"dataset_sheet" yaml:"dataset_sheet"`
	// Key for city-level fits: "city_state" or "city"
	CityKey string `mapstructure:"city_key" yaml:"city_key"`
	TopN    int    `mapstructure:"top_n" yaml:"top_n"`

	// Display precision of regression statistics
	Precision       int `mapstructure:"precision" yaml:"precision"`
	PValuePrecision int `mapstructure:"p_value_precision" yaml:"p_value_precision"`

	// Charts
	ChartsDir   string `mapstructure:"charts_dir" yaml:"charts_dir"`
	ChartWidth  int    `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight int    `mapstructure:"chart_height" yaml:"chart_height"`

	// Output and logging
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat    string `mapstructure:"log_format" yaml:"log_format"`
}

// Dir returns the default configuration directory (~/.gigstats).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".gigstats"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.gigstats/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults, and validates it.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	c, err := Read(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Read merges defaults, the config file and the environment without validating
// the result, so that an invalid file can still be repaired with `config set`.
func Read(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("GIGSTATS")
	v.AutomaticEnv()

	v.SetDefault("dataset_path", "final_data.csv")
	v.SetDefault("dataset_sheet", "")
	v.SetDefault("city_key", "city_state")
	v.SetDefault("top_n", 0)
	v.SetDefault("precision", 3)
	v.SetDefault("p_value_precision", 10)
	v.SetDefault("charts_dir", "")
	v.SetDefault("chart_width", 1024)
	v.SetDefault("chart_height", 768)
	v.SetDefault("output_format", "table")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Validate rejects values the commands cannot act on.
func (c *Global) Validate() error {
	switch c.CityKey {
	case "city_state", "city":
	default:
		return fmt.Errorf("invalid city_key: %s (use city_state or city)", c.CityKey)
	}
	switch c.OutputFormat {
	case "table", "markdown", "json":
	default:
		return fmt.Errorf("invalid output_format: %s (use table, markdown or json)", c.OutputFormat)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format: %s (use text or json)", c.LogFormat)
	}
	if c.Precision < 0 || c.PValuePrecision < 0 {
		return fmt.Errorf("precision must be >= 0")
	}
	if c.TopN < 0 {
		return fmt.Errorf("top_n must be >= 0")
	}
	return nil
}
