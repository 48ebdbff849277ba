package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/purestep/internal/backend/cpu"
	"github.com/born-ml/purestep/internal/config"
	"github.com/born-ml/purestep/internal/optim"
	"github.com/born-ml/purestep/internal/serialization"
	"github.com/born-ml/purestep/internal/tensor"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Epochs = 2
	cfg.Dataset.Samples = 120
	cfg.BatchSize = 16
	cfg.Checkpoint = filepath.Join(t.TempDir(), "run.pstp")
	require.NoError(t, cfg.Validate())
	return cfg
}

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, nil))
}

func TestNewRun_Classifier(t *testing.T) {
	cfg := testConfig(t)
	cfg.BatchNorm = true
	var buf bytes.Buffer

	r, err := newRun(cfg, cpu.New(), testLogger(&buf))
	require.NoError(t, err)
	require.NotNil(t, r.validation)
	assert.Equal(t, 3, r.driver.Model.OutFeatures())
	assert.Equal(t, []string{"loss", "accuracy"}, r.driver.Metrics.Names())
	// dense, batch_norm, activation, output dense
	assert.Len(t, r.driver.Model.Layers(), 4)

	history, err := r.driver.Fit(context.Background(), r.train, r.validation)
	require.NoError(t, err)
	assert.Len(t, history.Epochs, 2)
	assert.Contains(t, buf.String(), "msg=checkpoint")
}

func TestNewRun_Regression(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dataset.Kind = config.DatasetLinear
	cfg.Dataset.ValidationSplit = 0

	r, err := newRun(cfg, cpu.New(), testLogger(&bytes.Buffer{}))
	require.NoError(t, err)
	assert.Nil(t, r.validation)
	assert.Equal(t, 1, r.driver.Model.OutFeatures())
	assert.Equal(t, []string{"loss", "mse"}, r.driver.Metrics.Names())
}

func TestNewRun_CSVClassesFromLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b,label\n0,1,0\n1,0,1\n1,1,2\n0,0,1\n"), 0o600))

	cfg := testConfig(t)
	cfg.ApplyOverrides(config.Overrides{DatasetPath: path})
	cfg.Dataset.LabelColumn = "label"
	cfg.Dataset.Classes = 0
	cfg.Dataset.ValidationSplit = 0
	require.NoError(t, cfg.Validate())

	r, err := newRun(cfg, cpu.New(), testLogger(&bytes.Buffer{}))
	require.NoError(t, err)
	assert.False(t, cfg.Classification(), "csv without classes is regression")
	assert.Equal(t, 1, r.driver.Model.OutFeatures())
}

func TestNumClasses(t *testing.T) {
	labels := tensor.MustFromSlice([]float32{0, 2, 1, 2}, tensor.Shape{4})
	n, err := numClasses(labels, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = numClasses(labels, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = numClasses(tensor.Zeros(tensor.Shape{3}), 0)
	assert.Error(t, err)
}

func TestRun_Resume(t *testing.T) {
	cfg := testConfig(t)
	r, err := newRun(cfg, cpu.New(), testLogger(&bytes.Buffer{}))
	require.NoError(t, err)
	r.driver.Epochs = 1
	_, err = r.driver.Fit(context.Background(), r.train, r.validation)
	require.NoError(t, err)
	steps := optim.Iterations(r.driver.Optimizer.Variables())

	var buf bytes.Buffer
	resumed, err := newRun(cfg, cpu.New(), testLogger(&buf))
	require.NoError(t, err)
	require.NoError(t, resumed.resume(cfg.Checkpoint))
	assert.Equal(t, 1, resumed.driver.InitialEpoch)
	assert.Equal(t, int64(steps), resumed.driver.InitialStep)
	assert.Equal(t, steps, optim.Iterations(resumed.driver.Optimizer.Variables()))
	assert.True(t, r.driver.Model.TrainableValues().Equal(resumed.driver.Model.TrainableValues()))
	assert.Contains(t, buf.String(), "msg=resumed")

	_, err = resumed.driver.Fit(context.Background(), resumed.train, resumed.validation)
	require.NoError(t, err)
	assert.Equal(t, 2*steps, optim.Iterations(resumed.driver.Optimizer.Variables()))
	ckpt, err := serialization.Load(cfg.Checkpoint)
	require.NoError(t, err)
	assert.Equal(t, int64(2*steps), ckpt.Meta.Step)

	// A checkpoint that already covers every epoch cannot be resumed.
	done, err := newRun(cfg, cpu.New(), testLogger(&bytes.Buffer{}))
	require.NoError(t, err)
	assert.Error(t, done.resume(cfg.Checkpoint))
}

func TestInspect(t *testing.T) {
	cfg := testConfig(t)
	cfg.Epochs = 1
	r, err := newRun(cfg, cpu.New(), testLogger(&bytes.Buffer{}))
	require.NoError(t, err)
	_, err = r.driver.Fit(context.Background(), r.train, r.validation)
	require.NoError(t, err)

	require.NoError(t, inspect([]string{cfg.Checkpoint}))
	require.NoError(t, inspect([]string{"-skip-checksum", cfg.Checkpoint}))

	err = inspect(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected one checkpoint path, got 0")
	assert.Error(t, inspect([]string{filepath.Join(t.TempDir(), "missing.pstp")}))
}
