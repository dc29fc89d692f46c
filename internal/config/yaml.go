package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the top-level spardha configuration file.
type YAMLConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Gate     GateConfig     `yaml:"gate"`
	Site     SiteConfig     `yaml:"site"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig controls the HTTP server behavior.
type ServerConfig struct {
	Host            string     `yaml:"host"`
	Port            int        `yaml:"port"`
	ShutdownTimeout string     `yaml:"shutdown_timeout"`
	CORS            CORSConfig `yaml:"cors"`
}

// CORSConfig controls cross-origin resource sharing settings.
type CORSConfig struct {
	Origins []string `yaml:"origins"`
}

// DatabaseConfig selects the credential and registration store.
type DatabaseConfig struct {
	Driver  string `yaml:"driver"`
	DSN     string `yaml:"dsn"`
	DataDir string `yaml:"data_dir"`
}

// AuthConfig controls admin sessions.
type AuthConfig struct {
	SessionSecret   string `yaml:"session_secret"`
	SessionMaxAge   string `yaml:"session_max_age"`
	CookieSecure    bool   `yaml:"cookie_secure"`
	LoginsPerMinute int    `yaml:"logins_per_minute"`
}

// GateConfig controls the PIN step in front of the login form.
type GateConfig struct {
	PIN               string `yaml:"pin"`
	Delay             string `yaml:"delay"`
	AttemptsPerMinute int    `yaml:"attempts_per_minute"`
}

// SiteConfig controls the public landing page.
type SiteConfig struct {
	FestivalName string `yaml:"festival_name"`
	ContentFile  string `yaml:"content_file"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultPIN is the gate PIN used when none is configured.
const DefaultPIN = "0321"

// LoadYAMLConfig reads and parses a YAML configuration file. Environment
// variables referenced as ${VAR_NAME} in the file are expanded before parsing.
// Missing keys keep their default values.
func LoadYAMLConfig(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	content := os.ExpandEnv(string(data))

	cfg := DefaultYAMLConfig()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// DefaultYAMLConfig returns a YAMLConfig pre-filled with defaults.
func DefaultYAMLConfig() *YAMLConfig {
	return &YAMLConfig{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: "30s",
			CORS: CORSConfig{
				Origins: []string{"*"},
			},
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
		},
		Auth: AuthConfig{
			SessionMaxAge:   "12h",
			LoginsPerMinute: 10,
		},
		Gate: GateConfig{
			PIN:               DefaultPIN,
			Delay:             "1s",
			AttemptsPerMinute: 10,
		},
		Site: SiteConfig{
			FestivalName: "Spardha 2025",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// WriteDefaultConfig writes the default configuration to a YAML file.
func WriteDefaultConfig(path string) error {
	data, err := yaml.Marshal(DefaultYAMLConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
