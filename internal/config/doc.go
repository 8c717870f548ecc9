// Package config loads undotree settings.
//
// Settings come from three sources, in increasing precedence:
//
//  1. Built-in defaults (Default)
//  2. A config file, TOML or YAML chosen by extension
//  3. UNDOTREE_* environment variables
//
// A missing config file is not an error. Load validates the merged result
// and returns a *ValidationError naming every invalid field.
//
// Example config.toml:
//
//	[log]
//	level = "debug"
//	format = "json"
//
//	[snapshot]
//	compress_threshold = 1024
//
//	[lua]
//	scripts = ["commands.lua"]
package config
