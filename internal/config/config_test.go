package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/knn/dataset"
	"github.com/hupe1980/knn/distance"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func missing(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", missing(t))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)

	m, err := cfg.DistanceMetric()
	require.NoError(t, err)
	assert.Equal(t, distance.MetricEuclidean, m)

	p, err := cfg.SplitPolicy()
	require.NoError(t, err)
	assert.Equal(t, dataset.Positional, p)

	l, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, l)

	w, err := cfg.ReportWriter()
	require.NoError(t, err)
	assert.NotNil(t, w)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("KNN_METRIC", "manhattan")
	t.Setenv("KNN_K", "1-9,2")
	t.Setenv("KNN_TEST", "0.375")
	t.Setenv("KNN_SEED", "42")
	t.Setenv("KNN_NO_HEADER", "true")
	t.Setenv("KNN_LOG_LEVEL", "debug")
	t.Setenv("KNN_S3_PATH_STYLE", "true")
	t.Setenv("KNN_MINIO_ACCESS_KEY", "minioadmin")

	cfg, err := Load("", missing(t))
	require.NoError(t, err)

	assert.Equal(t, "manhattan", cfg.Metric)
	assert.Equal(t, "1-9,2", cfg.K)
	assert.Equal(t, 0.375, cfg.Test)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.True(t, cfg.NoHeader)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.S3.PathStyle)
	assert.Equal(t, "minioadmin", cfg.Minio.AccessKey)
	assert.Equal(t, "localhost:9000", cfg.Minio.Endpoint)
}

func TestLoad_DotEnv(t *testing.T) {
	t.Cleanup(func() { _ = os.Unsetenv("KNN_WORKERS") })
	t.Setenv("KNN_SPLIT", "stratified")

	env := write(t, "test.env", "KNN_WORKERS=4\nKNN_SPLIT=shuffle\n")
	cfg, err := Load("", env)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Workers)
	// The process environment wins over the dotenv file.
	assert.Equal(t, "stratified", cfg.Split)
}

func TestLoad_YAMLOverridesEnvironment(t *testing.T) {
	t.Setenv("KNN_OUTPUT", "text")
	t.Setenv("KNN_METRIC", "manhattan")

	file := write(t, "knn.yaml", `
output: json
delimiter: tab
s3:
  region: eu-central-1
  endpoint: http://localhost:4566
`)
	cfg, err := Load(file, missing(t))
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, "manhattan", cfg.Metric)
	assert.Equal(t, "tab", cfg.Delimiter)
	assert.Equal(t, "eu-central-1", cfg.S3.Region)
	assert.Equal(t, "http://localhost:4566", cfg.S3.Endpoint)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("MissingFile", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), missing(t))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("MalformedYAML", func(t *testing.T) {
		_, err := Load(write(t, "bad.yaml", "test: [1,"), missing(t))
		assert.Error(t, err)
	})

	t.Run("BadEnvType", func(t *testing.T) {
		t.Setenv("KNN_WORKERS", "many")
		_, err := Load("", missing(t))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"Metric", func(c *Config) { c.Metric = "cosine" }},
		{"K", func(c *Config) { c.K = "5-1" }},
		{"TestZero", func(c *Config) { c.Test = 0 }},
		{"TestOne", func(c *Config) { c.Test = 1 }},
		{"Split", func(c *Config) { c.Split = "random" }},
		{"Delimiter", func(c *Config) { c.Delimiter = `"` }},
		{"LogLevel", func(c *Config) { c.LogLevel = "loud" }},
		{"LogFormat", func(c *Config) { c.LogFormat = "xml" }},
		{"Output", func(c *Config) { c.Output = "csv" }},
		{"Codec", func(c *Config) { c.Codec = "msgpack" }},
	}

	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
