package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".gitloc"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for gitloc settings.
const envPrefix = "GITLOC"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// Defaults applied before any file or environment source.
const (
	DefaultInterval    = "monthly"
	DefaultBranch      = "main"
	DefaultWorkers     = 4
	DefaultTool        = ToolAuto
	DefaultToolTimeout = "5m"
	DefaultOutputDir   = "out"
	DefaultCacheDir    = ".gitloc-cache"
	DefaultLogLevel    = "info"
)

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("run.interval", DefaultInterval)
	viperCfg.SetDefault("run.workers", DefaultWorkers)
	viperCfg.SetDefault("run.thin", true)
	viperCfg.SetDefault("run.tool", DefaultTool)
	viperCfg.SetDefault("run.tool_timeout", DefaultToolTimeout)

	viperCfg.SetDefault("cache.dir", DefaultCacheDir)
	viperCfg.SetDefault("cache.disabled", false)

	viperCfg.SetDefault("output.dir", DefaultOutputDir)
	viperCfg.SetDefault("output.csv", true)
	viperCfg.SetDefault("output.html", true)
	viperCfg.SetDefault("output.quiet", false)
	viperCfg.SetDefault("output.no_color", false)

	viperCfg.SetDefault("telemetry.log_level", DefaultLogLevel)
}
