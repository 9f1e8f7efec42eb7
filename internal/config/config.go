package config

import "time"

// BackendConfig points the client at the hosted backend.
type BackendConfig struct {
	URL         string `mapstructure:"url" yaml:"url"`
	APIKey      string `mapstructure:"api_key" yaml:"api_key"`
	AccessToken string `mapstructure:"access_token" yaml:"access_token"`
	Bucket      string `mapstructure:"bucket" yaml:"bucket"`
}

// LocalConfig configures the in-process development backend.
type LocalConfig struct {
	Enabled      bool   `mapstructure:"enabled" yaml:"enabled"`
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`
	BlobDir      string `mapstructure:"blob_dir" yaml:"blob_dir"`
	UserID       string `mapstructure:"user_id" yaml:"user_id"`
	Username     string `mapstructure:"username" yaml:"username"`
}

// Config holds client configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	Heartbeat         time.Duration `mapstructure:"heartbeat" yaml:"heartbeat"`

	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`
	Local   LocalConfig   `mapstructure:"local" yaml:"local"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8090",
		LogLevel:          "info",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		Heartbeat:         30 * time.Second,
		Backend: BackendConfig{
			Bucket: "chat-files",
		},
		Local: LocalConfig{
			DatabasePath: "wirechat.db",
			BlobDir:      "wirechat-files",
			UserID:       "local-user",
			Username:     "local",
		},
	}
}
