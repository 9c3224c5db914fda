package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cachectl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, StoreRedis, cfg.Store.Kind)
	require.Equal(t, "Cache", cfg.Version.Namespace)
	require.Equal(t, "en", cfg.Locale)
}

func TestLoadOverridesAndExpandsEnv(t *testing.T) {
	t.Setenv("CACHECTL_TEST_REDIS", "redis://cache:6379/2")
	path := writeConfig(t, `
store:
  kind: redis
  redis_url: ${CACHECTL_TEST_REDIS}
  prefix: "app:"
  timeout: 2s
version:
  namespace: shop
  expiry: 720h
log:
  level: debug
  format: json
currency: EUR
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "redis://cache:6379/2", cfg.Store.RedisURL)
	require.Equal(t, "app:", cfg.Store.Prefix)
	require.Equal(t, 2*time.Second, cfg.Store.Timeout)
	require.Equal(t, "shop", cfg.Version.Namespace)
	require.Equal(t, 720*time.Hour, cfg.Version.Expiry)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "EUR", cfg.Currency)
	// untouched defaults survive
	require.Equal(t, "en", cfg.Locale)
}

func TestExpandedValueWithColon(t *testing.T) {
	t.Setenv("CACHECTL_TEST_MEMCACHE", "10.0.0.1:11211")
	cfg, err := Load(writeConfig(t, "store:\n  kind: memcache\n  memcache_servers: [${CACHECTL_TEST_MEMCACHE}]\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"10.0.0.1:11211"}, cfg.Store.MemcacheServers)
}

func TestUnsetEnvLeftAsIs(t *testing.T) {
	out := expandEnv([]byte("url: ${CACHECTL_SURELY_UNSET_VAR}"))
	require.Equal(t, "url: ${CACHECTL_SURELY_UNSET_VAR}", string(out))
}

func TestValidation(t *testing.T) {
	cases := map[string]string{
		"unknown kind":      "store:\n  kind: etcd\n",
		"memcache no hosts": "store:\n  kind: memcache\n",
		"negative expiry":   "version:\n  expiry: -1s\n",
		"bad level":         "log:\n  level: loud\n",
	}
	for name, body := range cases {
		_, err := Load(writeConfig(t, body))
		require.Error(t, err, name)
	}
}

func TestMemcacheConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, "store:\n  kind: memcache\n  memcache_servers: [\"127.0.0.1:11211\"]\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"127.0.0.1:11211"}, cfg.Store.MemcacheServers)
}

func TestMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
