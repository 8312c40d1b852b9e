package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Security SecurityConfig
	CORS     CORSConfig
	Logging  LoggingConfig
	Spotify  SpotifyConfig
	Artists  ArtistsConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL      string // Full PostgreSQL URL
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port int
	Host string
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig holds session signing settings
type SecurityConfig struct {
	JWTSecret  string
	SessionTTL time.Duration
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// SpotifyConfig holds the client-credentials settings for the Spotify Web API.
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	APIURL       string
	Timeout      time.Duration
}

// Enabled reports whether credentials were supplied.
func (s SpotifyConfig) Enabled() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

// ArtistsConfig tunes artist resolution during concert writes.
type ArtistsConfig struct {
	// ResolveConcurrency bounds parallel Spotify lookups per request.
	// 1 resolves artists one at a time in request order.
	ResolveConcurrency int
}

// envFiles are loaded into the process environment, first match wins per key.
var envFiles = []string{".env", "config/local.env"}

// Load reads configuration from env files, an optional gigjournal.yaml and
// the environment, in increasing order of precedence.
func Load() (*Config, error) {
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	v := viper.New()
	v.SetConfigName("gigjournal")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	v.AutomaticEnv()

	cfg := &Config{}
	cfg.loadDatabase(v)
	cfg.Server = ServerConfig{
		Host: v.GetString("host"),
		Port: v.GetInt("port"),
	}
	cfg.Security = SecurityConfig{
		JWTSecret:  v.GetString("jwt_secret"),
		SessionTTL: v.GetDuration("session_ttl"),
	}
	cfg.CORS.AllowedOrigins = splitList(v.GetString("cors_allowed_origins"))
	cfg.Logging = LoggingConfig{
		Level:  strings.ToLower(v.GetString("log_level")),
		Format: strings.ToLower(v.GetString("log_format")),
	}
	cfg.Spotify = SpotifyConfig{
		ClientID:     v.GetString("spotify_client_id"),
		ClientSecret: v.GetString("spotify_client_secret"),
		TokenURL:     v.GetString("spotify_token_url"),
		APIURL:       strings.TrimRight(v.GetString("spotify_api_url"), "/"),
		Timeout:      v.GetDuration("spotify_timeout"),
	}
	cfg.Artists.ResolveConcurrency = v.GetInt("artist_resolve_concurrency")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 5432)
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("session_ttl", "720h")
	v.SetDefault("cors_allowed_origins", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("spotify_token_url", "https://accounts.spotify.com/api/token")
	v.SetDefault("spotify_api_url", "https://api.spotify.com/v1")
	v.SetDefault("spotify_timeout", "10s")
	v.SetDefault("artist_resolve_concurrency", 1)
}

func (c *Config) loadDatabase(v *viper.Viper) {
	c.Database = DatabaseConfig{
		URL:      v.GetString("database_url"),
		Host:     v.GetString("db_host"),
		Port:     v.GetInt("db_port"),
		User:     v.GetString("db_user"),
		Password: v.GetString("db_password"),
		Name:     v.GetString("db_name"),
		SSLMode:  v.GetString("db_sslmode"),
	}

	// Construct URL from individual parameters when DATABASE_URL is absent
	if c.Database.URL == "" && c.Database.User != "" && c.Database.Name != "" {
		c.Database.URL = fmt.Sprintf(
			"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
			c.Database.User,
			c.Database.Password,
			c.Database.Host,
			c.Database.Port,
			c.Database.Name,
			c.Database.SSLMode,
		)
	}
}

// Validate checks that all required configuration is present and valid
func (c *Config) Validate() error {
	var problems []string

	if c.Database.URL == "" {
		problems = append(problems, "DATABASE_URL is required (or DB_USER, DB_NAME)")
	}

	if c.Security.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	} else if len(c.Security.JWTSecret) < 16 {
		problems = append(problems, "JWT_SECRET must be at least 16 characters")
	}
	if c.Security.SessionTTL <= 0 {
		problems = append(problems, "SESSION_TTL must be positive")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, "PORT must be between 1 and 65535")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		problems = append(problems, "LOG_LEVEL must be one of: debug, info, warn, error")
	}
	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		problems = append(problems, "LOG_FORMAT must be one of: json, text")
	}

	if (c.Spotify.ClientID == "") != (c.Spotify.ClientSecret == "") {
		problems = append(problems, "SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET must be set together")
	}
	if c.Spotify.Timeout <= 0 {
		problems = append(problems, "SPOTIFY_TIMEOUT must be positive")
	}

	if c.Artists.ResolveConcurrency < 1 {
		problems = append(problems, "ARTIST_RESOLVE_CONCURRENCY must be at least 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
