package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestYamlSourceAndPathAccess(t *testing.T) {
	path := writeTempFile(t, "app.yaml", `
database:
  dsn: "file::memory:?cache=shared"
  maxConns: 10
  readOnly: false
redis:
  addr: "localhost:6379"
`)
	cfg, err := NewConfigurationBuilder().AddYamlFile(path, false).Build()
	require.NoError(t, err)

	assert.Equal(t, "file::memory:?cache=shared", cfg.GetString("database:dsn"))
	assert.Equal(t, 10, cfg.GetInt("database.maxConns"))
	assert.False(t, cfg.GetBool("database:readOnly", true))
	assert.Equal(t, "localhost:6379", cfg.GetString("redis:addr"))
	assert.True(t, cfg.Exists("database"))
	assert.False(t, cfg.Exists("database:missing"))
	assert.Equal(t, "fallback", cfg.GetString("nope", "fallback"))
}

func TestJsonSource(t *testing.T) {
	path := writeTempFile(t, "app.json", `{"web": {"port": 8080, "debug": true}}`)
	cfg, err := NewConfigurationBuilder().AddJsonFile(path, false).Build()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.GetInt("web:port"))
	assert.True(t, cfg.GetBool("web:debug"))
}

func TestMissingRequiredFileFails(t *testing.T) {
	_, err := NewConfigurationBuilder().AddYamlFile("/does/not/exist.yaml", false).Build()
	assert.Error(t, err)

	cfg, err := NewConfigurationBuilder().AddYamlFile("/does/not/exist.yaml", true).Build()
	require.NoError(t, err)
	assert.False(t, cfg.Exists("anything"))
}

func TestLaterSourcesOverride(t *testing.T) {
	base := writeTempFile(t, "base.yaml", `
service:
  name: base
  tier: standard
`)
	cfg, err := NewConfigurationBuilder().
		AddYamlFile(base, false).
		AddInMemory(map[string]any{"service:name": "override"}).
		Build()
	require.NoError(t, err)

	// 深合并：覆盖同名键，保留其余键
	assert.Equal(t, "override", cfg.GetString("service:name"))
	assert.Equal(t, "standard", cfg.GetString("service:tier"))
}

func TestEnvironmentVariables(t *testing.T) {
	t.Setenv("FACTORYTEST_DATABASE__DSN", "env-dsn")
	t.Setenv("FACTORYTEST_PORT", "9090")

	cfg, err := NewConfigurationBuilder().AddEnvironmentVariables("FACTORYTEST_").Build()
	require.NoError(t, err)

	assert.Equal(t, "env-dsn", cfg.GetString("database:dsn"))
	assert.Equal(t, 9090, cfg.GetInt("port"))
}

func TestBind(t *testing.T) {
	type dbOptions struct {
		DSN      string `json:"dsn"`
		MaxConns int    `json:"maxConns"`
	}

	path := writeTempFile(t, "app.yaml", `
database:
  dsn: "sqlite"
  maxConns: 3
`)
	cfg, err := NewConfigurationBuilder().AddYamlFile(path, false).Build()
	require.NoError(t, err)

	var opts dbOptions
	require.NoError(t, cfg.Bind("database", &opts))
	assert.Equal(t, "sqlite", opts.DSN)
	assert.Equal(t, 3, opts.MaxConns)

	assert.Error(t, cfg.Bind("missing", &opts))
}

func TestSection(t *testing.T) {
	cfg, err := NewConfigurationBuilder().
		AddInMemory(map[string]any{
			"redis:addr": "localhost:6379",
			"redis:db":   2,
		}).
		Build()
	require.NoError(t, err)

	section := cfg.Section("redis")
	assert.Equal(t, "localhost:6379", section.GetString("addr"))
	assert.Equal(t, 2, section.GetInt("db"))

	empty := cfg.Section("missing")
	assert.False(t, empty.Exists("anything"))
}

func TestNumericCoercion(t *testing.T) {
	cfg, err := NewConfigurationBuilder().
		AddInMemory(map[string]any{
			"a": "42",
			"b": 3.5,
			"c": "true",
		}).
		Build()
	require.NoError(t, err)

	assert.Equal(t, 42, cfg.GetInt("a"))
	assert.Equal(t, 3.5, cfg.GetFloat("b"))
	assert.True(t, cfg.GetBool("c"))
	assert.Equal(t, 7, cfg.GetInt("missing", 7))
}
