package main

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/clock"

	"github.com/pendeploy-nightly/config"
	"github.com/pendeploy-nightly/models"
	"github.com/pendeploy-nightly/utils"
)

func TestCheck_MissingConfigurationReportsOnce(t *testing.T) {
	t.Setenv(config.APITokenEnv, "")
	t.Setenv(config.ServiceIDEnv, "")

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"check", "--env-file", filepath.Join(t.TempDir(), "missing.env")})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	require.Error(t, err)

	var exitErr *exitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, models.ExitFailure, exitErr.code)
	assert.Equal(t, models.StageStart, exitErr.stage)

	assert.Empty(t, stderr.String())
	assert.Contains(t, stdout.String(), "ERROR: missing API token")
	assert.Contains(t, stdout.String(), "ERROR: missing service id")
}

func TestLoadSettings_AppliesLogLevel(t *testing.T) {
	t.Setenv(config.APITokenEnv, "rnd_abc")
	t.Setenv(config.ServiceIDEnv, "srv-123")
	t.Setenv("LOG_LEVEL", "debug")

	logger := utils.NewLogger(io.Discard, "info", clock.RealClock{})

	settings, err := loadSettings(logger)()
	require.NoError(t, err)

	assert.Equal(t, "debug", settings.LogLevel)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}

func TestLoadSettings_KeepsLevelOnError(t *testing.T) {
	t.Setenv(config.APITokenEnv, "")
	t.Setenv(config.ServiceIDEnv, "")
	t.Setenv("LOG_LEVEL", "debug")

	logger := utils.NewLogger(io.Discard, "info", clock.RealClock{})

	_, err := loadSettings(logger)()
	require.Error(t, err)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}
