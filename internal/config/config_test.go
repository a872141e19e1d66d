// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/internal/config"
	"github.com/gatehouse/gatehouse/pkg/errutil"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	defaults := config.Defaults()

	assert.Equal(t, ":8080", defaults.Listen)
	assert.Equal(t, ":9090", defaults.MetricsListen)
	assert.Equal(t, "json", defaults.LogFormat)
	assert.Empty(t, defaults.DatabaseURL)
	assert.Empty(t, defaults.PasswordSalt)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
listen: ":7000"
database_url: "postgres://localhost/gatehouse"
password_salt: "pepper"
`)

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Listen)
	assert.Equal(t, ":9090", cfg.MetricsListen)
	assert.Equal(t, "postgres://localhost/gatehouse", cfg.DatabaseURL)
	assert.Equal(t, "pepper", cfg.PasswordSalt)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	path := writeConfigFile(t, `
listen: ":7000"
database_url: "postgres://localhost/from-file"
log_format: "text"
`)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("listen", "", "")
	flags.String("database-url", "", "")
	require.NoError(t, flags.Parse([]string{
		"--listen", ":6000",
		"--database-url", "postgres://localhost/from-flag",
	}))

	cfg, err := config.Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, ":6000", cfg.Listen)
	assert.Equal(t, "postgres://localhost/from-flag", cfg.DatabaseURL)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_UnsetFlagsDoNotOverride(t *testing.T) {
	path := writeConfigFile(t, `
listen: ":7000"
database_url: "postgres://localhost/gatehouse"
`)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("listen", "", "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := config.Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Listen)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)

	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_FILE_MISSING")
}

func TestLoad_MalformedFile(t *testing.T) {
	path := writeConfigFile(t, "listen: [unclosed\n")

	_, err := config.Load(path, nil)

	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_FILE_INVALID")
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	path := writeConfigFile(t, `listen: ":7000"`)

	_, err := config.Load(path, nil)

	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}
