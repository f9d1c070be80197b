// Package paths locates the files headless reads and writes by default.
//
// # Directory Structure
//
//	$XDG_CONFIG_HOME/headless/
//	  ├── config.yaml    (or config.yml, config.toml)
//	$XDG_CACHE_HOME/headless/
//	  └── cookies.db     (suggested cookie store location)
//
// # Usage
//
//	if file, ok := paths.ConfigFile(); ok {
//		cfg, err = config.LoadFile(file)
//	}
package paths
