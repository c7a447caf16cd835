// Package config loads the siteshell configuration.
//
// The configuration is read from siteshell.yaml (or siteshell.json) in the
// working directory, or from the file passed with --config. Every key can be
// overridden from the environment with the SITESHELL_ prefix, dots replaced
// by underscores (SITESHELL_SERVER_PORT=9000).
//
// # Configuration File Structure
//
//	server:
//	  host: 0.0.0.0
//	  port: 8080
//	  static_dir: ./site/static
//	document:
//	  path: ./site/index.html
//	  mount_id: root
//	routes:
//	  entries:
//	    - path: /
//	      module: home
//	    - path: /give
//	      module: give
//	  fallback: not-found
//	modules:
//	  source: dir
//	  dir: ./site/modules
//	  fetch_timeout: 10s
//	log:
//	  level: info
//	  format: text
//
// # Usage
//
//	v := config.NewViper("")
//	cfg, err := config.Load(v)
//	if err != nil {
//	    errors.PrintError(err)
//	    os.Exit(1)
//	}
package config
