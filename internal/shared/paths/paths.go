package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// AppName is the directory name under the user's config and cache roots
const AppName = "headless"

// ConfigNames are tried in order inside ConfigDir
var ConfigNames = []string{"config.yaml", "config.yml", "config.toml"}

// ConfigDir returns the user's headless configuration directory
func ConfigDir() (string, error) {
	root, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, AppName), nil
}

// CacheDir returns the user's headless cache directory
func CacheDir() (string, error) {
	root, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, AppName), nil
}

// ConfigFile returns the first configuration file present in ConfigDir
func ConfigFile() (string, bool) {
	dir, err := ConfigDir()
	if err != nil {
		return "", false
	}
	for _, name := range ConfigNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// CookieDB returns the suggested cookie store path inside CacheDir
func CookieDB() (string, error) {
	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cookies.db"), nil
}

// Expand replaces a leading ~ with the user's home directory
func Expand(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
