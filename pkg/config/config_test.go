package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name    string `yaml:"name"`
	Port    int    `yaml:"port"`
	applied bool
}

func (c *testConfig) ApplyEnv(getenv func(string) string) error {
	c.applied = true
	if v := getenv("TEST_CONFIG_NAME_OVERRIDE"); v != "" {
		c.Name = v
	}
	return nil
}

func (c *testConfig) Validate() error {
	if c.Port == 0 {
		return errors.New("port is required")
	}
	return nil
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_CONFIG_PORT", "4000")
	cfg := &testConfig{}
	require.NoError(t, Load(writeFile(t, "name: shop\nport: ${TEST_CONFIG_PORT}\n"), cfg))
	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, "shop", cfg.Name)
	assert.True(t, cfg.applied, "ApplyEnv should run")
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	t.Setenv("TEST_CONFIG_NAME_OVERRIDE", "from-env")
	cfg := &testConfig{Name: "default", Port: 3001}
	require.NoError(t, Load(filepath.Join(t.TempDir(), "absent.yaml"), cfg))
	assert.Equal(t, "from-env", cfg.Name)
	assert.Equal(t, 3001, cfg.Port)
}

func TestLoadValidates(t *testing.T) {
	cfg := &testConfig{}
	assert.Error(t, Load(writeFile(t, "name: shop\n"), cfg))
}

func TestLoadBadYAML(t *testing.T) {
	cfg := &testConfig{}
	assert.Error(t, Load(writeFile(t, "name: [unterminated\n"), cfg))
}
