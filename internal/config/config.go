package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/lanscr/lanscr/internal/logging"
	"github.com/spf13/viper"
)

var log = logging.L("config")

// Config holds everything the streaming engine needs at startup. CLI flags
// override file/env values; the file is optional.
type Config struct {
	Port    uint16 `mapstructure:"port"`
	Fps     int    `mapstructure:"fps"`
	Quality int    `mapstructure:"quality"`

	// Auth is "user:pass". Private generates credentials at startup instead.
	Auth    string `mapstructure:"auth"`
	Private bool   `mapstructure:"private"`

	MuteAudio bool `mapstructure:"mute_audio"`
	NoAudio   bool `mapstructure:"no_audio"`

	// Logging configuration
	Verbose       bool   `mapstructure:"verbose"`
	LogFormat     string `mapstructure:"log_format"`
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
}

func Default() *Config {
	return &Config{
		Port:          8000,
		Fps:           0, // 0 = per-mode default
		Quality:       80,
		LogFormat:     "text",
		LogMaxSizeMB:  20,
		LogMaxBackups: 2,
	}
}

// Load reads the optional config file and LANSCR_* environment overrides.
func Load(cfgFile string) (*Config, error) {
	cfg := Default()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("lanscr")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(configDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("LANSCR")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	// Fatals block startup, warnings are logged and continue.
	result := cfg.ValidateTiered()
	for _, err := range result.Warnings {
		log.Warn("config validation", "error", err)
	}
	if result.HasFatals() {
		for _, err := range result.Fatals {
			log.Error("config validation fatal", "error", err)
		}
		return nil, fmt.Errorf("config has fatal validation errors: %v", result.Fatals[0])
	}

	return cfg, nil
}

func configDir() string {
	if runtime.GOOS == "windows" {
		if pd := os.Getenv("ProgramData"); pd != "" {
			return filepath.Join(pd, "lanscr")
		}
		return `C:\ProgramData\lanscr`
	}
	return "/etc/lanscr"
}
