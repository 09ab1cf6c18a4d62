// Package config loads run parameters for the knn command.
//
// Values are layered, later sources winning: built-in defaults, a .env file,
// KNN_* environment variables, then an optional YAML file. Command-line flags
// are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/knn/codec"
	"github.com/hupe1980/knn/dataset"
	"github.com/hupe1980/knn/distance"
	"github.com/hupe1980/knn/kspec"
	"github.com/hupe1980/knn/report"
	"github.com/hupe1980/knn/table"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "KNN"

// ErrInvalidConfig is returned when a loaded value cannot be used.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the run parameters.
type Config struct {
	Metric    string  `yaml:"metric"`
	K         string  `yaml:"k"`
	Test      float64 `yaml:"test"`
	Split     string  `yaml:"split"`
	Seed      uint64  `yaml:"seed"`
	Workers   int     `yaml:"workers"`
	NoHeader  bool    `yaml:"no_header" split_words:"true"`
	Delimiter string  `yaml:"delimiter"`
	LogLevel  string  `yaml:"log_level" split_words:"true"`
	LogFormat string  `yaml:"log_format" split_words:"true"`
	Output    string  `yaml:"output"`
	Codec     string  `yaml:"codec"`

	S3    S3Config    `yaml:"s3"`
	Minio MinioConfig `yaml:"minio"`
}

// S3Config configures s3:// locations.
type S3Config struct {
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style" split_words:"true"`
}

// MinioConfig configures minio:// locations.
type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key" split_words:"true"`
	SecretKey string `yaml:"secret_key" split_words:"true"`
	Secure    bool   `yaml:"secure"`
	Region    string `yaml:"region"`
}

// Default returns the built-in configuration. K is empty so each command
// can apply its own default.
func Default() *Config {
	return &Config{
		Metric:    distance.MetricEuclidean.String(),
		Test:      0.25,
		Split:     dataset.Positional.String(),
		Seed:      dataset.DefaultSeed,
		Workers:   1,
		Delimiter: ",",
		LogLevel:  "warn",
		LogFormat: "text",
		Output:    report.Text.String(),
		Minio: MinioConfig{
			Endpoint: "localhost:9000",
		},
	}
}

// Load builds a Config from the defaults, the given dotenv files (".env"
// when none are named; missing files are skipped), the environment and,
// when file is non-empty, a YAML file.
func Load(file string, dotenv ...string) (*Config, error) {
	cfg := Default()

	if len(dotenv) == 0 {
		dotenv = []string{".env"}
	}
	for _, f := range dotenv {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	// Fields without a matching variable keep their default.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every value parses.
func (c *Config) Validate() error {
	if _, err := c.DistanceMetric(); err != nil {
		return fmt.Errorf("%w: metric: %w", ErrInvalidConfig, err)
	}
	if c.K != "" {
		if _, err := kspec.Parse(c.K); err != nil {
			return fmt.Errorf("%w: k: %w", ErrInvalidConfig, err)
		}
	}
	if !(c.Test > 0 && c.Test < 1) {
		return fmt.Errorf("%w: test fraction %v must be in (0,1)", ErrInvalidConfig, c.Test)
	}
	if _, err := c.SplitPolicy(); err != nil {
		return fmt.Errorf("%w: split: %w", ErrInvalidConfig, err)
	}
	if _, err := table.ParseDelimiter(c.Delimiter); err != nil {
		return fmt.Errorf("%w: delimiter: %w", ErrInvalidConfig, err)
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("%w: log level: %w", ErrInvalidConfig, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalidConfig, c.LogFormat)
	}
	if _, err := report.ParseFormat(c.Output); err != nil {
		return fmt.Errorf("%w: output: %w", ErrInvalidConfig, err)
	}
	if _, err := codec.Parse(c.Codec); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// DistanceMetric parses Metric.
func (c *Config) DistanceMetric() (distance.Metric, error) {
	return distance.ParseMetric(c.Metric)
}

// SplitPolicy parses Split.
func (c *Config) SplitPolicy() (dataset.Policy, error) {
	return dataset.ParsePolicy(c.Split)
}

// ReportWriter returns a report writer for Output and Codec.
func (c *Config) ReportWriter() (*report.Writer, error) {
	format, err := report.ParseFormat(c.Output)
	if err != nil {
		return nil, err
	}
	cd, err := codec.Parse(c.Codec)
	if err != nil {
		return nil, err
	}
	return report.NewWriter(format, cd), nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(c.LogLevel))
	return l, err
}
