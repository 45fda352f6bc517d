package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pfp/internal/config"
)

func TestLoadAppliesDefaultsWithNoFileOrEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	require.Positive(t, cfg.Window)
	require.Positive(t, cfg.Modulus)
	require.True(t, cfg.UseAcceleration)
	require.Equal(t, 0, cfg.MaxSamples)
	require.Positive(t, cfg.Workers)
}

func TestLoadReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pfp.yaml")

	require.NoError(t, os.WriteFile(path, []byte("w: 16\np: 50\nmax_samples: 7\n"), 0o600))

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)
	require.Equal(t, 16, cfg.Window)
	require.Equal(t, 50, cfg.Modulus)
	require.Equal(t, 7, cfg.MaxSamples)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pfp.yaml")

	require.NoError(t, os.WriteFile(path, []byte("w: 16\n"), 0o600))
	t.Setenv("PFP_W", "20")

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)
	require.Equal(t, 20, cfg.Window)
}

func TestValidateRejectsNonPositiveWindow(t *testing.T) {
	cfg := &config.Config{Window: 0, Modulus: 100, Workers: 1, BufferSize: 1}
	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidWindow)
}

func TestValidateRejectsNonPositiveModulus(t *testing.T) {
	cfg := &config.Config{Window: 10, Modulus: 0, Workers: 1, BufferSize: 1}
	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidModulus)
}

func TestValidateRejectsNegativeMaxSamples(t *testing.T) {
	cfg := &config.Config{Window: 10, Modulus: 100, Workers: 1, BufferSize: 1, MaxSamples: -1}
	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidMaxSamples)
}

func TestValidateRejectsNonPositiveWorkersAndBufferSize(t *testing.T) {
	cfg := &config.Config{Window: 10, Modulus: 100, Workers: 0, BufferSize: 1}
	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidWorkers)

	cfg = &config.Config{Window: 10, Modulus: 100, Workers: 1, BufferSize: 0}
	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidBufferSize)
}
