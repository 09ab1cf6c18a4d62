package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/knn"
	"github.com/hupe1980/knn/internal/config"
)

const points = `x,y,class
0,0,a
0,1,a
1,0,a
9,9,b
9,8,b
8,9,b
0.5,0.5,a
8.5,8.5,b
`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestPredict(t *testing.T) {
	file := writeFile(t, "points.csv", points)

	out, err := run(t, "", "predict", "-f", file, "--col", "x", "--col", "1", "--label", "class",
		"--datapoint", "1,1", "-k", "3")
	require.NoError(t, err)
	assert.Equal(t, "k value: 3 | 1 1\n  a: 3 1.00\nlabel: a\n", out)
}

func TestPredict_Stdin(t *testing.T) {
	out, err := run(t, points, "predict", "-f", "-", "--col", "0", "--col", "1", "--label", "2",
		"--datapoint", "9,9", "--algo", "manhattan", "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"label":"b"`)
	assert.Contains(t, out, `"metric":"manhattan"`)
}

func TestPredict_PrettyJSON(t *testing.T) {
	file := writeFile(t, "points.csv", points)
	t.Setenv("KNN_CODEC", "json")

	out, err := run(t, "", "--pretty", "predict", "-f", file, "--col", "x", "--col", "y", "--label", "class",
		"--datapoint", "0,0", "-k", "1", "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "\n  \"label\": \"a\",\n")
}

func TestPredict_Errors(t *testing.T) {
	file := writeFile(t, "points.csv", points)

	_, err := run(t, "", "predict", "-f", file, "--col", "x", "--col", "y", "--label", "class",
		"--datapoint", "1", "-k", "1")
	var dm *knn.ErrDimensionMismatch
	assert.ErrorAs(t, err, &dm)

	_, err = run(t, "", "predict", "-f", file, "--col", "x", "--label", "class",
		"--datapoint", "1", "-k", "1-3")
	assert.ErrorIs(t, err, knn.ErrInvalidK)

	_, err = run(t, "", "predict", "-f", file, "--col", "x", "--label", "class",
		"--datapoint", "1", "--algo", "cosine")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = run(t, "", "predict", "--col", "x", "--label", "class", "--datapoint", "1")
	assert.Error(t, err)
}

func TestSearch(t *testing.T) {
	file := writeFile(t, "points.csv", points)
	metrics := filepath.Join(t.TempDir(), "knn.prom")
	report := filepath.Join(t.TempDir(), "report.txt")

	out, err := run(t, "", "search", "-f", file, "--col", "x", "--col", "y", "--label", "class",
		"-k", "1-3", "--test", "0.25", "--out", report, "--metrics-file", metrics)
	require.NoError(t, err)

	expected := "train size: 6 test size: 2\n" +
		"k 1 % 100.00 (2/2)\n" +
		"k 2 % 100.00 (2/2)\n" +
		"k 3 % 100.00 (2/2)\n" +
		"best k: 1 accuracy: 100.00%\n"
	assert.Equal(t, expected, out)

	written, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Equal(t, expected, string(written))

	prom, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "knn_evaluations_total 3")
}

func TestSearch_SelectColumns(t *testing.T) {
	file := writeFile(t, "points.csv", points)

	out, err := run(t, "", "search", "-f", file, "--col", "x", "--col", "y", "--label", "class",
		"-k", "1", "--select-columns", "--split", "stratified")
	require.NoError(t, err)
	assert.Contains(t, out, "feature selection:\n")
	assert.Contains(t, out, "cols: x\n")
	assert.Contains(t, out, "cols: x y\n")
}

func TestSearch_ConfigFile(t *testing.T) {
	file := writeFile(t, "points.tsv", strings.ReplaceAll(points, ",", "\t"))
	cfg := writeFile(t, "knn.yaml", "delimiter: tab\noutput: json\nk: \"1\"\n")

	out, err := run(t, "", "--config", cfg, "search", "-f", file, "--col", "x", "--col", "y", "--label", "class")
	require.NoError(t, err)
	assert.Contains(t, out, `"best":{"k":1`)

	// Explicit flags win over the config file.
	out, err = run(t, "", "--config", cfg, "search", "-f", file, "--col", "x", "--col", "y", "--label", "class",
		"--output", "text")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "train size: 6 test size: 2\n"))
}

func TestSearch_Errors(t *testing.T) {
	file := writeFile(t, "points.csv", points)

	_, err := run(t, "", "search", "-f", file, "--col", "x", "--label", "class", "-k", "1-7")
	assert.ErrorIs(t, err, knn.ErrInvalidK)

	_, err = run(t, "", "search", "-f", file, "--col", "nope", "--label", "class")
	assert.Error(t, err)

	_, err = run(t, "", "search", "-f", filepath.Join(t.TempDir(), "missing.csv"), "--col", "x", "--label", "class")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "knn "))
}
