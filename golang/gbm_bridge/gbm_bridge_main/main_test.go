package main

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tarstars/gbm_pmml_bridge/golang/gbm_bridge/rawmodel"
	"gonum.org/v1/gonum/mat"
)

const testModel = `
initF: 0.5
response.name: y
var.names: [age, color]
var.type: [0, 3]
var.levels:
  - [18, 65]
  - [red, green, blue]
c.splits:
  - [-1, 1, -1]
trees:
  - [[0, -1, -1, -1], [30, 0, 0, 0], [1, -1, -1, -1], [2, -1, -1, -1], [3, -1, -1, -1], [1, 0, 0, 0], [10, 4, 5, 1], [0, -1, 1, 0.25]]
  - [[1, -1, -1], [0, 0, 0], [1, -1, -1], [2, -1, -1], [-1, -1, -1], [1, 0, 0], [10, 6, 4], [0, 2, -2]]
`

func writeTestModel(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testModel), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConvertCommand(t *testing.T) {
	model := writeTestModel(t)
	dst := filepath.Join(t.TempDir(), "model.pmml")

	_, err := run(t, "convert", "--filename_model", model, "--filename_pmml", dst, "--threads_num", "2")
	require.NoError(t, err)

	content, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Contains(t, string(content), `<Application name="gbm_bridge" version="0.1.0">`)
	assert.Contains(t, string(content), `rescaleConstant="0.5"`)
	assert.Contains(t, string(content), `<Segment id="2">`)
}

func TestConvertCommandConfigFile(t *testing.T) {
	dir := t.TempDir()
	model := writeTestModel(t)
	config := filepath.Join(dir, "convert.json")
	require.NoError(t, os.WriteFile(config, []byte(`{
		"filename_model": "`+model+`",
		"filename_pmml": "`+filepath.Join(dir, "from_config.pmml")+`",
		"threads_num": 1
	}`), 0o644))

	_, err := run(t, "convert", "--config", config)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "from_config.pmml"))

	override := filepath.Join(dir, "from_flag.pmml")
	_, err = run(t, "convert", "--config", config, "--filename_pmml", override)
	require.NoError(t, err)
	assert.FileExists(t, override)
}

func TestConvertCommandErrors(t *testing.T) {
	_, err := run(t, "convert", "--filename_model", writeTestModel(t))
	assert.Error(t, err)

	broken := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("initF: 0\n"), 0o644))
	_, err = run(t, "convert", "--filename_model", broken, "--filename_pmml", filepath.Join(t.TempDir(), "x.pmml"))
	assert.Error(t, err)

	_, err = run(t, "convert", "--filename_model", writeTestModel(t), "--filename_pmml", "x.pmml", "--threads_num", "0")
	assert.Error(t, err)
}

func TestPredictCommand(t *testing.T) {
	dir := t.TempDir()
	features := filepath.Join(dir, "features.npy")
	require.NoError(t, rawmodel.WriteNpy(features, mat.NewDense(3, 2, []float64{
		20, 0,
		40, 1,
		math.NaN(), 2,
	})))
	target := filepath.Join(dir, "target.npy")

	_, err := run(t, "predict", "--filename_model", writeTestModel(t), "--filename_features", features, "--filename_target", target)
	require.NoError(t, err)

	prediction, err := rawmodel.ReadNpy(target)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5 - 1 + 2, 0.5 + 1 - 2, 0.5 + 0.25 + 2}, prediction.RawMatrix().Data, 1e-12)

	_, err = run(t, "predict", "--filename_model", writeTestModel(t), "--filename_features", features,
		"--filename_target", target, "--trees_number", "1")
	require.NoError(t, err)
	prediction, err = rawmodel.ReadNpy(target)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5 - 1, 0.5 + 1, 0.5 + 0.25}, prediction.RawMatrix().Data, 1e-12)
}

func TestInspectCommand(t *testing.T) {
	out, err := run(t, "inspect", "--filename_model", writeTestModel(t))
	require.NoError(t, err)
	assert.Contains(t, out, "baseline 0.5")

	out = strings.ToLower(out)
	assert.Contains(t, out, "fields")
	assert.Contains(t, out, "trees")
	assert.Contains(t, out, "color")
	assert.Contains(t, out, "2 of 2")
}

func TestGraphCommand(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "graph", "--filename_model", writeTestModel(t), "--pictures_directory", dir, "--dump_prefix", "gbm")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "gbm_00000.svg"))
	assert.FileExists(t, filepath.Join(dir, "gbm_00001.svg"))

	_, err = run(t, "graph", "--filename_model", writeTestModel(t), "--figure_type", "gif")
	assert.Error(t, err)
}

func TestLogPath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	_, err := run(t, "--log-path", dir, "inspect", "--filename_model", writeTestModel(t))
	require.NoError(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}
