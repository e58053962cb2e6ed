// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Analyzer AnalyzerConfig `mapstructure:"analyzer"`
	Products ProductsConfig `mapstructure:"products"`
	Session  SessionConfig  `mapstructure:"session"`
	Tables   TablesConfig   `mapstructure:"tables"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// GetAddress returns the host:port the HTTP server binds to
func (s ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Specific Configuration Sections ---

// AnalyzerConfig holds settings for the meal analysis API.
type AnalyzerConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// ProductsConfig holds settings for the barcode product lookup.
type ProductsConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	Timeout     int    `mapstructure:"timeout"`       // milliseconds
	CacheTTLMin int    `mapstructure:"cache_ttl_min"` // minutes
}

// SessionConfig holds settings for conversation session storage.
type SessionConfig struct {
	TTLMin int `mapstructure:"ttl_min"` // minutes
}

// TablesConfig holds paths to the externalized data tables. Empty paths fall
// back to the compiled-in defaults.
type TablesConfig struct {
	Portions    string `mapstructure:"portions"`
	Corrections string `mapstructure:"corrections"`
	Suggestions string `mapstructure:"suggestions"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
