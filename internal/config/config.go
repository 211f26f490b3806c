package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port    string
	LogMode string

	// Database configuration
	DBType            string // mysql, postgres, sqlite, sqlserver
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUser            string
	DBPassword        string
	DBConnectionLimit int

	// Authorizer configuration
	AuthzURL      string
	AuthzClientID string

	// Search index
	Elastic ElasticConfig `yaml:"elastic_search"`

	// Agave tenant
	AgaveBaseURL      string
	AgaveClientKey    string
	AgaveClientSecret string

	// Box.com integration
	BoxClientID     string
	BoxClientSecret string
	BoxRedirectURL  string

	// Event fan-out
	RedisAddr    string
	RedisChannel string

	// Cookie encryption key (base64, 32 bytes); empty leaves cookies unencrypted
	SessionSecret string
}

// ElasticConfig is the search index block. It may come from the YAML file named by
// CONFIG_FILE; ES_* environment variables win over the file.
type ElasticConfig struct {
	Hosts         []string      `yaml:"hosts"`
	DefaultIndex  string        `yaml:"default_index"`
	Username      string        `yaml:"username"`
	Password      string        `yaml:"password"`
	SniffOnStart  bool          `yaml:"sniff_on_start"`
	SniffInterval time.Duration `yaml:"sniffer_timeout"`
}

// Load loads configuration from an optional .env file, an optional YAML overlay and
// the environment, in that order of increasing precedence.
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := &Config{
		Elastic: ElasticConfig{
			Hosts:         []string{"http://localhost:9200"},
			DefaultIndex:  "designsafe",
			SniffInterval: 60 * time.Second,
		},
	}

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		if err := loadYAML(file, cfg); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnv("PORT", "3000")
	cfg.LogMode = getEnv("LOG_MODE", "development")
	cfg.DBType = getEnv("DB_TYPE", "mysql")
	cfg.DBHost = getEnv("DB_HOST", "localhost")
	cfg.DBPort = getEnv("DB_PORT", "3306")
	cfg.DBDatabase = getEnv("DB_DATABASE", "")
	cfg.DBUser = getEnv("DB_USER", "")
	cfg.DBPassword = getEnv("DB_PASSWORD", "")
	cfg.DBConnectionLimit = getEnvAsInt("DB_CONNECTION_LIMIT", 5)
	cfg.AuthzURL = getEnv("AUTHZ_URL", "")
	cfg.AuthzClientID = getEnv("AUTHZ_CLIENT_ID", "")

	if hosts := getEnvAsList("ES_HOSTS"); len(hosts) > 0 {
		cfg.Elastic.Hosts = hosts
	}
	cfg.Elastic.DefaultIndex = getEnv("ES_DEFAULT_INDEX", cfg.Elastic.DefaultIndex)
	cfg.Elastic.Username = getEnv("ES_USERNAME", cfg.Elastic.Username)
	cfg.Elastic.Password = getEnv("ES_PASSWORD", cfg.Elastic.Password)

	cfg.AgaveBaseURL = strings.TrimSuffix(getEnv("AGAVE_TENANT_BASEURL", ""), "/")
	cfg.AgaveClientKey = getEnv("AGAVE_CLIENT_KEY", "")
	cfg.AgaveClientSecret = getEnv("AGAVE_CLIENT_SECRET", "")

	cfg.BoxClientID = getEnv("BOX_CLIENT_ID", "")
	cfg.BoxClientSecret = getEnv("BOX_CLIENT_SECRET", "")
	cfg.BoxRedirectURL = getEnv("BOX_REDIRECT_URL", "")

	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RedisChannel = getEnv("REDIS_CHANNEL", "designsafe-events")
	cfg.SessionSecret = getEnv("SESSION_SECRET", "")

	if len(cfg.Elastic.Hosts) == 0 {
		return nil, fmt.Errorf("ES_HOSTS is required")
	}
	if cfg.Elastic.DefaultIndex == "" {
		return nil, fmt.Errorf("ES_DEFAULT_INDEX is required")
	}

	return cfg, nil
}

// ValidateServer checks the keys only the HTTP service needs.
func (c *Config) ValidateServer() error {
	if c.DBDatabase == "" {
		return fmt.Errorf("DB_DATABASE is required")
	}
	if c.DBType != "sqlite" && c.DBUser == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.AuthzURL == "" {
		return fmt.Errorf("AUTHZ_URL is required")
	}
	if c.AuthzClientID == "" {
		return fmt.Errorf("AUTHZ_CLIENT_ID is required")
	}
	if c.AgaveBaseURL == "" {
		return fmt.Errorf("AGAVE_TENANT_BASEURL is required")
	}
	return nil
}

// BoxEnabled reports whether Box.com credentials are configured.
func (c *Config) BoxEnabled() bool {
	return c.BoxClientID != "" && c.BoxClientSecret != ""
}

func loadYAML(file string, cfg *Config) error {
	raw, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", file, err)
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma separated environment variable, dropping blanks
func getEnvAsList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
