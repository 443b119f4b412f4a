package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Database configuration
	Database DatabaseConfig `mapstructure:"database"`

	// Session configuration
	Session SessionConfig `mapstructure:"session"`

	// Authentication configuration
	Auth AuthConfig `mapstructure:"auth"`

	// File access configuration
	Files FilesConfig `mapstructure:"files"`

	// Duplicate-submission guard configuration
	Dedup DedupConfig `mapstructure:"dedup"`

	// Environment name (development, production)
	Env string `mapstructure:"env"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
	PublicDir    string `mapstructure:"public_dir"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL             string `mapstructure:"url"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// SessionConfig holds session cookie configuration
type SessionConfig struct {
	Secret   string `mapstructure:"secret"`
	Name     string `mapstructure:"name"`
	MaxAge   int    `mapstructure:"max_age"`
	Secure   bool   `mapstructure:"secure"`
	HTTPOnly bool   `mapstructure:"http_only"`
}

// AuthConfig holds credential configuration
type AuthConfig struct {
	AdminPassword string `mapstructure:"admin_password"`
	BcryptRounds  int    `mapstructure:"bcrypt_rounds"`
}

// FilesConfig holds file access configuration
type FilesConfig struct {
	UploadDir    string `mapstructure:"upload_dir"`
	AllowedPaths string `mapstructure:"allowed_paths"`
}

// DedupConfig holds duplicate-submission guard configuration
type DedupConfig struct {
	RetentionSeconds int `mapstructure:"retention_seconds"`
	SweepSeconds     int `mapstructure:"sweep_seconds"`
}

// AllowedPathList returns the operator-supplied extra allowed path prefixes
func (f FilesConfig) AllowedPathList() []string {
	var paths []string
	for _, p := range strings.Split(f.AllowedPaths, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/controle-doc-medica")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvAliases()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 3000)
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 30)
	viper.SetDefault("server.idle_timeout", 120)
	viper.SetDefault("server.public_dir", "./public")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "controle_doc_medica")
	viper.SetDefault("database.user", "docmedica")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 300)

	// Session defaults
	viper.SetDefault("session.name", "docmedica_session")
	viper.SetDefault("session.max_age", 86400) // 24 hours
	viper.SetDefault("session.secure", false)
	viper.SetDefault("session.http_only", true)

	// Auth defaults
	viper.SetDefault("auth.bcrypt_rounds", 12)

	// File access defaults
	viper.SetDefault("files.upload_dir", "./uploads")
	viper.SetDefault("files.allowed_paths", "")

	// Dedup guard defaults
	viper.SetDefault("dedup.retention_seconds", 30)
	viper.SetDefault("dedup.sweep_seconds", 10)

	// Environment defaults
	viper.SetDefault("env", "development")
	viper.SetDefault("log_level", "info")
}

// bindEnvAliases maps the short environment variable names used in
// deployments onto the nested config keys
func bindEnvAliases() {
	aliases := map[string]string{
		"server.port":             "PORT",
		"database.url":            "DATABASE_URL",
		"session.secret":          "SESSION_SECRET",
		"auth.admin_password":     "ADMIN_PASSWORD",
		"auth.bcrypt_rounds":      "BCRYPT_ROUNDS",
		"files.upload_dir":        "UPLOAD_DIR",
		"files.allowed_paths":     "ALLOWED_FILE_PATHS",
		"dedup.retention_seconds": "DEDUP_RETENTION_SECONDS",
		"dedup.sweep_seconds":     "DEDUP_SWEEP_SECONDS",
		"env":                     "ENV",
		"log_level":               "LOG_LEVEL",
	}
	for key, env := range aliases {
		viper.BindEnv(key, env)
	}
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Session.Secret == "" {
		if config.Env != "development" {
			return fmt.Errorf("session secret is required outside development")
		}
		config.Session.Secret = "DocMed_Session_Secret_2025"
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Auth.BcryptRounds < 4 || config.Auth.BcryptRounds > 31 {
		return fmt.Errorf("invalid bcrypt rounds: %d", config.Auth.BcryptRounds)
	}

	if config.Dedup.RetentionSeconds <= 0 || config.Dedup.SweepSeconds <= 0 {
		return fmt.Errorf("dedup retention and sweep intervals must be positive")
	}

	return nil
}
