// Package config loads CLI configuration from a YAML file with environment
// variable overrides (STEELYARD_*).
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	Paths struct {
		Catalog   string `mapstructure:"catalog"`
		Inventory string `mapstructure:"inventory"`
		Session   string `mapstructure:"session"`
		ExportDir string `mapstructure:"export_dir"`
	} `mapstructure:"paths"`

	Session struct {
		ProjectObjectID   int    `mapstructure:"project_object_id"`
		ResponsibleUserID int    `mapstructure:"responsible_user_id"`
		Comment           string `mapstructure:"comment"`
	} `mapstructure:"session"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

// DefaultPath returns ~/.steelyard/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".steelyard", "config.yaml"), nil
}

// Load reads configuration from path. A missing file is not an error: the
// defaults (and any STEELYARD_* environment overrides) are returned instead.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("STEELYARD")
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("paths.export_dir", ".")

	var c Config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return c, err
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}
