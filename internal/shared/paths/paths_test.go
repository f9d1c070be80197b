package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFilePrefersYAML(t *testing.T) {
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", root)

	_, ok := ConfigFile()
	assert.False(t, ok)

	dir := filepath.Join(root, AppName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), nil, 0o600))
	path, ok := ConfigFile()
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "config.toml"), path)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), nil, 0o600))
	path, _ = ConfigFile()
	assert.Equal(t, filepath.Join(dir, "config.yaml"), path)
}

func TestCookieDB(t *testing.T) {
	root := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", root)

	path, err := CookieDB()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, AppName, "cookies.db"), path)
}

func TestExpand(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, filepath.Join(home, "cookies.db"), Expand("~/cookies.db"))
	assert.Equal(t, home, Expand("~"))
	assert.Equal(t, "/tmp/x", Expand("/tmp/x"))
	assert.Equal(t, "~user/x", Expand("~user/x"))
}
