package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/DDNStorage/qosd/errors"
)

// DefaultDirPermissions mirrors the teacher's am package constant.
const DefaultDirPermissions = 0755

// Load reads the QoS admin surface for the given filesystem name using
// Viper, merging system, user, project, and environment-variable sources
// in that precedence order (lowest to highest), grounded on am/load.go.
func Load(filesystem string) (*Config, error) {
	v := newViper()

	var opts Options
	if err := v.Unmarshal(&opts); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal qos config")
	}

	homeDir, _ := os.UserHomeDir()
	overrides, err := loadUserOverrides(filepath.Join(homeDir, ".qosd", UsersDirName))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load user overrides")
	}
	applyUserOverrides(&opts, overrides)

	return &Config{Filesystem: filesystem, Options: opts}, nil
}

// LoadFromFile loads the admin surface from a single TOML file, bypassing
// environment-variable and search-path merging. Used by tests and by
// explicit --config flags.
func LoadFromFile(filesystem, configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	var opts Options
	if err := v.Unmarshal(&opts); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal config from %s", configPath)
	}

	return &Config{Filesystem: filesystem, Options: opts}, nil
}

// newViper builds a Viper instance layering env vars over merged config
// files over defaults.
func newViper() *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix("QOSD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	BindSensitiveEnvVars(v)

	SetDefaults(v)
	mergeConfigFiles(v)

	return v
}

// findProjectConfig searches for qosd.toml by walking up the directory
// tree, grounded on am/load.go findProjectConfig.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		path := filepath.Join(dir, "qosd.toml")
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// mergeConfigFiles merges configuration files in precedence order: system
// < user < project < env vars, grounded on am/load.go mergeConfigFiles.
func mergeConfigFiles(v *viper.Viper) {
	homeDir, _ := os.UserHomeDir()
	qosdDir := filepath.Join(homeDir, ".qosd")
	_ = os.MkdirAll(qosdDir, DefaultDirPermissions)

	configPaths := []string{
		"/etc/qosd/qosd.toml",
		filepath.Join(qosdDir, "qosd.toml"),
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		configPaths = append(configPaths, projectConfig)
	}

	for _, configPath := range configPaths {
		if _, err := os.Stat(configPath); err != nil {
			continue
		}

		tempViper := viper.New()
		tempViper.SetConfigFile(configPath)
		tempViper.SetConfigType("toml")

		if err := tempViper.ReadInConfig(); err != nil {
			continue
		}

		// MergeConfigMap writes to the config layer, which environment
		// variables outrank; v.Set would outrank them instead.
		if err := v.MergeConfigMap(tempViper.AllSettings()); err != nil {
			continue
		}
	}
}
