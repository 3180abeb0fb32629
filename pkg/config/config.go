package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the tool.
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Graph operation defaults
	Graph GraphConfig `mapstructure:"graph"`

	// Zep backend configuration
	Zep ZepConfig `mapstructure:"zep"`

	// Neo4j backend configuration
	Neo4j Neo4jConfig `mapstructure:"neo4j"`

	// Journal configuration
	Journal JournalConfig `mapstructure:"journal"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// GraphConfig holds the operation defaults threaded into the adapter.
type GraphConfig struct {
	ID             string        `mapstructure:"id"`      // default graph id
	Backend        string        `mapstructure:"backend"` // zep, neo4j
	PageSize       int           `mapstructure:"page_size"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	CallTimeout    time.Duration `mapstructure:"call_timeout"`
}

// ZepConfig holds Zep API settings.
type ZepConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Neo4jConfig holds Neo4j settings.
type Neo4jConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// JournalConfig holds audit journal settings.
type JournalConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig holds the read-only HTTP server settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("log.level", "info")

	viper.SetDefault("graph.id", "pet-store-knowledge")
	viper.SetDefault("graph.backend", "zep")
	viper.SetDefault("graph.page_size", 100)
	viper.SetDefault("graph.max_attempts", 3)
	viper.SetDefault("graph.initial_backoff", "250ms")
	viper.SetDefault("graph.max_backoff", "5s")
	viper.SetDefault("graph.call_timeout", "30s")

	viper.SetDefault("zep.base_url", "https://api.getzep.com")
	viper.SetDefault("zep.timeout", "30s")

	viper.SetDefault("neo4j.uri", "bolt://localhost:7687")
	viper.SetDefault("neo4j.username", "neo4j")
	viper.SetDefault("neo4j.password", "password")
	viper.SetDefault("neo4j.database", "neo4j")

	viper.SetDefault("journal.path", ".graphkeeper/journal")

	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")
}

// overrideWithEnv overrides config with environment variables.
func overrideWithEnv(config *Config) {
	if apiKey := os.Getenv("ZEP_API_KEY"); apiKey != "" {
		config.Zep.APIKey = apiKey
	}
	if baseURL := os.Getenv("ZEP_BASE_URL"); baseURL != "" {
		config.Zep.BaseURL = baseURL
	}
	if graphID := os.Getenv("ZEP_GRAPH_ID"); graphID != "" {
		config.Graph.ID = graphID
	}

	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		config.Neo4j.URI = uri
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		config.Neo4j.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		config.Neo4j.Password = pass
	}
}
