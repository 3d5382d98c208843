package source

import (
	"fmt"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config locates the on-disk journal.
type Config interface {
	BasePath() string
}

// LoadConfig resolves the journal path from an .easel config file and the
// EASEL_ environment, defaulting to ~/.easel.db.
func LoadConfig() (Config, error) {
	viper.SetDefault("path", "~/.easel.db")
	viper.SetConfigName(".easel") // .yaml is implicit
	viper.SetEnvPrefix("EASEL")
	viper.AutomaticEnv()

	if override := os.Getenv("EASEL_CONFIG_PATH"); override != "" {
		viper.AddConfigPath(override)
	}
	viper.AddConfigPath("./")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("source: read config: %w", err)
		}
	}

	path, err := homedir.Expand(viper.GetString("path"))
	if err != nil {
		return nil, fmt.Errorf("source: expand journal path: %w", err)
	}
	return &fileConfig{path: path}, nil
}

// ConfigAt pins the journal to an explicit base path, bypassing config
// discovery. A leading ~ is expanded when possible.
func ConfigAt(path string) Config {
	if expanded, err := homedir.Expand(path); err == nil {
		path = expanded
	}
	return &fileConfig{path: path}
}

type fileConfig struct {
	path string
}

func (f *fileConfig) BasePath() string {
	return f.path
}
