package server

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the server configuration.
type Config struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	DevMode bool   `mapstructure:"dev_mode"`
}

// Addr returns the listen address as host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.dev_mode", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Plugin defaults
	v.SetDefault("plugins.face.enabled", true)
	v.SetDefault("plugins.face.window_size", 30)
	v.SetDefault("plugins.face.sensitivity", 2.0)
	v.SetDefault("plugins.face.min_samples", 5)
	v.SetDefault("plugins.face.frame_rate", 30)
	v.SetDefault("plugins.face.blink_window", 60)
	v.SetDefault("plugins.face.blink_rate_low", 10.0)
	v.SetDefault("plugins.face.blink_rate_high", 25.0)
	v.SetDefault("plugins.voice.enabled", true)
	v.SetDefault("plugins.voice.window_size", 30)
	v.SetDefault("plugins.voice.sensitivity", 2.0)
	v.SetDefault("plugins.voice.min_samples", 5)
	v.SetDefault("plugins.voice.sample_rate", 16000)
	v.SetDefault("plugins.voice.chunk_duration", "1s")
	v.SetDefault("plugins.voice.silence_rms", 0.01)
	v.SetDefault("plugins.pulse.enabled", true)
	v.SetDefault("plugins.pulse.frame_rate", 30)
	v.SetDefault("plugins.pulse.buffer_seconds", 10)
	v.SetDefault("plugins.pulse.min_seconds", 5)
	v.SetDefault("plugins.pulse.median_window", 5)
	v.SetDefault("plugins.pulse.resting_bpm", 90.0)
	v.SetDefault("plugins.fusion.facial_weight", 0.4)
	v.SetDefault("plugins.fusion.voice_weight", 0.3)
	v.SetDefault("plugins.fusion.pulse_weight", 0.3)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("candor")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/candor")
	}

	// Environment variable support: CANDOR_SERVER_PORT=9090
	v.SetEnvPrefix("CANDOR")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}

	return v, nil
}
