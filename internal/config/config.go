package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "SPEEDCTL"

// Config is the speedctl configuration, read from an optional file, SPEEDCTL_* environment variables and flags
type Config struct {
	Log   LogConfig   `mapstructure:"log"`
	Watch WatchConfig `mapstructure:"watch"`
}

type LogConfig struct {
	// Level is a zap level name (debug, info, warn, error)
	Level string `mapstructure:"level"`
	// Format is either console or json
	Format string `mapstructure:"format"`
}

type WatchConfig struct {
	// File to read payloads from, "-" for stdin. Ignored when SerialPort is set.
	File string `mapstructure:"file"`
	// SerialPort is the device delivering one hex payload per line, e.g. /dev/ttyUSB0
	SerialPort string `mapstructure:"serial_port"`
	// BaudRate of the serial port
	BaudRate int `mapstructure:"baud_rate"`
	// MetricsAddr is the listen address of the prometheus endpoint, disabled when empty
	MetricsAddr string `mapstructure:"metrics_addr"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("watch.file", "-")
	v.SetDefault("watch.serial_port", "")
	v.SetDefault("watch.baud_rate", 115200)
	v.SetDefault("watch.metrics_addr", ":9666")
}

// Load reads the configuration. path may be empty, in which case only defaults, environment and bound flags apply.
func Load(v *viper.Viper, path string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Watch.BaudRate <= 0 {
		return errors.New("baud rate must be positive")
	}
	if c.Watch.SerialPort == "" && c.Watch.File == "" {
		return errors.New("either a serial port or an input file is required")
	}
	return nil
}
