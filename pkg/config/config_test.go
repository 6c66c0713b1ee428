package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	valid bool
}

func (s *sample) Validate() error {
	s.valid = true
	if s.Port < 0 {
		return errors.New("port must not be negative")
	}
	return nil
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("ARKADIA_TEST_NAME", "arkana")
	path := writeFile(t, "name: ${ARKADIA_TEST_NAME}\nport: 9000\n")

	cfg := sample{Port: 1}
	require.NoError(t, Load(path, &cfg))
	assert.Equal(t, "arkana", cfg.Name)
	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.valid, "Validate was called")
}

func TestLoad_KeepsDefaultsForMissingKeys(t *testing.T) {
	path := writeFile(t, "name: only\n")
	cfg := sample{Port: 8080}
	require.NoError(t, Load(path, &cfg))
	assert.Equal(t, 8080, cfg.Port)
}

func TestLoad_ValidationError(t *testing.T) {
	path := writeFile(t, "port: -1\n")
	var cfg sample
	err := Load(path, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestLoad_ParseError(t *testing.T) {
	path := writeFile(t, "port: [unclosed\n")
	var cfg sample
	assert.Error(t, Load(path, &cfg))
}

func TestLoadIfExists_MissingFile(t *testing.T) {
	cfg := sample{Name: "default", Port: 8080}
	require.NoError(t, LoadIfExists(filepath.Join(t.TempDir(), "nope.yaml"), &cfg))
	assert.Equal(t, "default", cfg.Name)
	assert.True(t, cfg.valid)
}

func TestLoadIfExists_ValidatesDefaults(t *testing.T) {
	cfg := sample{Port: -5}
	assert.Error(t, LoadIfExists(filepath.Join(t.TempDir(), "nope.yaml"), &cfg))
}

func TestLoadWithDefaults_FallsBack(t *testing.T) {
	fallback := writeFile(t, "name: fallback\n")
	var cfg sample
	require.NoError(t, LoadWithDefaults(filepath.Join(t.TempDir(), "nope.yaml"), fallback, &cfg))
	assert.Equal(t, "fallback", cfg.Name)
}
