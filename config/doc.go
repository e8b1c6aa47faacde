// Package config loads fetchkit configuration from YAML files and the
// environment. File values are overridden by environment variables with the
// configured prefix (FETCH by default), and a .env file is honored when
// present so local development matches deployed behavior.
package config
