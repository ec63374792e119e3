package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Settings are process-wide options that are not part of a scenario. They
// come from flags, PNEUMOSTAB_* environment variables or an optional
// pneumostab.yaml in the working directory, in that order of precedence.
type Settings struct {
	DataDir  string
	LogLevel string
	LogJSON  bool
	Workers  int
}

const envPrefix = "PNEUMOSTAB"

// NewViper returns a viper instance with the defaults registered.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("data", ".pneumostab")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
	v.SetDefault("workers", 4)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("pneumostab")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	return v
}

// LoadSettings reads the optional settings file and returns the merged
// settings. A missing file is not an error.
func LoadSettings(v *viper.Viper) (Settings, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, err
		}
	}
	return Settings{
		DataDir:  v.GetString("data"),
		LogLevel: v.GetString("log_level"),
		LogJSON:  v.GetBool("log_json"),
		Workers:  v.GetInt("workers"),
	}, nil
}
