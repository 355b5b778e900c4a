package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up in the working directory.
const DefaultFileName = "heron.yaml"

// Config represents heron.yaml configuration
type Config struct {
	Project    ProjectConfig   `yaml:"project" mapstructure:"project"`
	Scan       ScanConfig      `yaml:"scan" mapstructure:"scan"`
	Thresholds ThresholdConfig `yaml:"thresholds" mapstructure:"thresholds"`
	Store      StoreConfig     `yaml:"store" mapstructure:"store"`
	Logging    LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

// ProjectConfig identifies the audited project in the metrics store
type ProjectConfig struct {
	ID string `yaml:"id" mapstructure:"id"`
}

// ScanConfig controls which analyzers run and how
type ScanConfig struct {
	Categories        []string `yaml:"categories" mapstructure:"categories"`
	Exclude           []string `yaml:"exclude" mapstructure:"exclude"`
	Workers           int      `yaml:"workers" mapstructure:"workers"`
	Sequential        bool     `yaml:"sequential" mapstructure:"sequential"`
	AnalyzerTimeout   string   `yaml:"analyzer_timeout" mapstructure:"analyzer_timeout"`
	MinDuplicateLines int      `yaml:"min_duplicate_lines" mapstructure:"min_duplicate_lines"`
}

// Timeout parses AnalyzerTimeout. An empty or invalid value means no timeout.
func (s ScanConfig) Timeout() time.Duration {
	if s.AnalyzerTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(s.AnalyzerTimeout)
	if err != nil {
		return 0
	}
	return d
}

// ThresholdConfig holds the limits used by the built-in checks
type ThresholdConfig struct {
	Complexity    int     `yaml:"complexity" mapstructure:"complexity"`
	Nesting       int     `yaml:"nesting" mapstructure:"nesting"`
	FunctionLines int     `yaml:"function_lines" mapstructure:"function_lines"`
	Parameters    int     `yaml:"parameters" mapstructure:"parameters"`
	Instability   float64 `yaml:"instability" mapstructure:"instability"`
	Efferent      int     `yaml:"efferent" mapstructure:"efferent"`
	ClassMethods  int     `yaml:"class_methods" mapstructure:"class_methods"`
}

// StoreConfig locates the snapshot database
type StoreConfig struct {
	Path     string `yaml:"path" mapstructure:"path"`
	ReadPool int    `yaml:"read_pool" mapstructure:"read_pool"`
}

// LoggingConfig configures pkg/logger
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Project: ProjectConfig{},
		Scan: ScanConfig{
			Categories:        nil,
			Exclude:           []string{"node_modules", "vendor", "dist", "build", "testdata", "__pycache__", ".venv"},
			Workers:           0,
			Sequential:        false,
			AnalyzerTimeout:   "2m",
			MinDuplicateLines: 6,
		},
		Thresholds: ThresholdConfig{
			Complexity:    10,
			Nesting:       4,
			FunctionLines: 80,
			Parameters:    6,
			Instability:   0.8,
			Efferent:      10,
			ClassMethods:  20,
		},
		Store: StoreConfig{
			Path:     ".heron/metrics.db",
			ReadPool: 4,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load reads configuration with viper. An empty path searches the working
// directory for heron.yaml. HERON_* environment variables override file
// values (HERON_SCAN_WORKERS -> scan.workers). A missing file yields defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("heron")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("HERON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("project.id", cfg.Project.ID)
	v.SetDefault("scan.categories", cfg.Scan.Categories)
	v.SetDefault("scan.exclude", cfg.Scan.Exclude)
	v.SetDefault("scan.workers", cfg.Scan.Workers)
	v.SetDefault("scan.sequential", cfg.Scan.Sequential)
	v.SetDefault("scan.analyzer_timeout", cfg.Scan.AnalyzerTimeout)
	v.SetDefault("scan.min_duplicate_lines", cfg.Scan.MinDuplicateLines)
	v.SetDefault("thresholds.complexity", cfg.Thresholds.Complexity)
	v.SetDefault("thresholds.nesting", cfg.Thresholds.Nesting)
	v.SetDefault("thresholds.function_lines", cfg.Thresholds.FunctionLines)
	v.SetDefault("thresholds.parameters", cfg.Thresholds.Parameters)
	v.SetDefault("thresholds.instability", cfg.Thresholds.Instability)
	v.SetDefault("thresholds.efferent", cfg.Thresholds.Efferent)
	v.SetDefault("thresholds.class_methods", cfg.Thresholds.ClassMethods)
	v.SetDefault("store.path", cfg.Store.Path)
	v.SetDefault("store.read_pool", cfg.Store.ReadPool)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
}

// Save writes configuration to a YAML file
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}
