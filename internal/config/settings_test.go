package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsDefaults(t *testing.T) {
	v := NewViper()
	v.AddConfigPath(t.TempDir())

	s, err := LoadSettings(v)
	require.NoError(t, err)
	assert.Equal(t, ".pneumostab", s.DataDir)
	assert.Equal(t, "info", s.LogLevel)
	assert.False(t, s.LogJSON)
	assert.Equal(t, 4, s.Workers)
}

func TestLoadSettingsEnv(t *testing.T) {
	t.Setenv("PNEUMOSTAB_DATA", "/tmp/runs")
	t.Setenv("PNEUMOSTAB_LOG_LEVEL", "debug")
	t.Setenv("PNEUMOSTAB_WORKERS", "9")

	v := NewViper()
	s, err := LoadSettings(v)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/runs", s.DataDir)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, 9, s.Workers)
}

func TestLoadSettingsFile(t *testing.T) {
	dir := t.TempDir()
	body := "data: runs\nlog_level: warn\nlog_json: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pneumostab.yaml"), []byte(body), 0644))

	v := NewViper()
	v.AddConfigPath(dir)
	s, err := LoadSettings(v)
	require.NoError(t, err)
	assert.Equal(t, "runs", s.DataDir)
	assert.Equal(t, "warn", s.LogLevel)
	assert.True(t, s.LogJSON)
}

func TestLoadSettingsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pneumostab.yaml"), []byte("data: [x"), 0644))

	v := NewViper()
	v.AddConfigPath(dir)
	_, err := LoadSettings(v)
	assert.Error(t, err)
}
