package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultEnvPrefix is the environment variable prefix used when none is given.
const DefaultEnvPrefix = "FETCH"

// LoaderConfig controls where configuration is read from.
type LoaderConfig struct {
	// ConfigFile is an explicit YAML config file path. When empty, standard
	// locations are searched (./config.yml, ./config/config.yml).
	ConfigFile string
	// EnvFile is an explicit .env file path. When empty, ./.env is used if
	// it exists.
	EnvFile string
	// EnvPrefix is the environment variable prefix. Defaults to FETCH, so
	// e.g. FETCH_HEADER_TIMEOUT overrides the header_timeout key.
	EnvPrefix string
}

// Load reads configuration into out, which must be a pointer to a struct
// with mapstructure tags. Precedence: environment > config file > struct
// zero values (callers apply their own defaults afterwards).
func Load(out any, opts LoaderConfig) error {
	if opts.EnvPrefix == "" {
		opts.EnvPrefix = DefaultEnvPrefix
	}

	if err := loadEnvFile(opts.EnvFile); err != nil {
		return err
	}

	v := viper.New()

	file := opts.ConfigFile
	if file == "" {
		file = findConfigFile()
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: read %s: %w", file, err)
		}
	}

	// Viper only unmarshals env values for keys it already knows about, so
	// prefixed variables are bound explicitly instead of via AutomaticEnv.
	bindPrefixedEnv(v, opts.EnvPrefix)

	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("config: unmarshal: %w", err)
	}
	return nil
}

// bindPrefixedEnv sets every PREFIX_* environment variable on v. The
// remainder after the prefix is lowercased, so FETCH_BASE_URL becomes the
// base_url key.
func bindPrefixedEnv(v *viper.Viper, prefix string) {
	envPrefix := prefix + "_"
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 || !strings.HasPrefix(pair[0], envPrefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(pair[0], envPrefix))
		v.Set(key, pair[1])
	}
}

// loadEnvFile loads variables from a .env file into the process environment.
// A missing implicit file is not an error; a missing explicit one is.
func loadEnvFile(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("config: load env file %s: %w", path, err)
		}
		return nil
	}
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("config: load .env: %w", err)
		}
	}
	return nil
}

// findConfigFile searches standard locations for a config file.
func findConfigFile() string {
	candidates := []string{
		"./config.yml",
		"./config.yaml",
		"./config/config.yml",
		"./config/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
