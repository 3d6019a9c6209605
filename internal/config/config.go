// Package config manages application configuration from environment variables and .env files.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fitz/triage/internal/docker"
	"github.com/fitz/triage/internal/graph"
	"github.com/fitz/triage/internal/neo4j"
	"github.com/fitz/triage/internal/priority"
	"github.com/joho/godotenv"
)

// Configuration keys.
const (
	KeyNeo4jURI      = "NEO4J_URI"
	KeyNeo4jUsername = "NEO4J_USERNAME"
	KeyNeo4jPassword = "NEO4J_PASSWORD"
	KeyNeo4jDatabase = "NEO4J_DATABASE"
	KeyStrategy      = "TRIAGE_STRATEGY"
	KeyLogLevel      = "TRIAGE_LOG_LEVEL"
	KeyNeo4jImage    = "NEO4J_IMAGE"
	KeyContainerName = "TRIAGE_CONTAINER_NAME"
	KeyBackend       = "TRIAGE_BACKEND"
	KeyPGHost        = "POSTGRES_HOST"
	KeyPGPort        = "POSTGRES_PORT"
	KeyPGUser        = "POSTGRES_USER"
	KeyPGPassword    = "POSTGRES_PASSWORD"
	KeyPGDatabase    = "POSTGRES_DB"
)

// Storage backends selectable with TRIAGE_BACKEND.
const (
	BackendNeo4j = "neo4j"
	BackendAGE   = "age"
)

// Defaults for optional keys. Passwords have none.
var defaults = map[string]string{
	KeyNeo4jURI:      "neo4j://localhost:7687",
	KeyNeo4jUsername: "neo4j",
	KeyNeo4jDatabase: "neo4j",
	KeyStrategy:      "balanced",
	KeyLogLevel:      "info",
	KeyNeo4jImage:    "neo4j:5.26-community",
	KeyContainerName: "triage-neo4j",
	KeyBackend:       BackendNeo4j,
	KeyPGHost:        "localhost",
	KeyPGPort:        "5432",
	KeyPGUser:        "triage",
	KeyPGDatabase:    "triage",
}

// Keys lists every recognized configuration key in display order.
var Keys = []string{
	KeyNeo4jURI,
	KeyNeo4jUsername,
	KeyNeo4jPassword,
	KeyNeo4jDatabase,
	KeyStrategy,
	KeyLogLevel,
	KeyNeo4jImage,
	KeyContainerName,
	KeyBackend,
	KeyPGHost,
	KeyPGPort,
	KeyPGUser,
	KeyPGPassword,
	KeyPGDatabase,
}

// Config holds the application configuration.
type Config struct {
	Neo4jURI      string
	Neo4jUsername string
	Neo4jPassword string
	Neo4jDatabase string
	Strategy      string
	LogLevel      string
	Neo4jImage    string
	ContainerName string
	Backend       string
	PGHost        string
	PGPort        string
	PGUser        string
	PGPassword    string
	PGDatabase    string
}

// Load reads configuration from a .env file in the specified directory.
// Values resolve in order: local .env, global config (~/.triage/config),
// environment variables, defaults.
func Load(dir string) (*Config, error) {
	localEnvMap := readEnvFile(GetConfigPath(dir))
	globalEnvMap := readEnvFile(GetGlobalConfigPath())

	lookup := func(key string) string {
		if value, ok := localEnvMap[key]; ok && value != "" {
			return value
		}
		if value, ok := globalEnvMap[key]; ok && value != "" {
			return value
		}
		if value := os.Getenv(key); value != "" {
			return value
		}
		return defaults[key]
	}

	cfg := &Config{
		Neo4jURI:      lookup(KeyNeo4jURI),
		Neo4jUsername: lookup(KeyNeo4jUsername),
		Neo4jPassword: lookup(KeyNeo4jPassword),
		Neo4jDatabase: lookup(KeyNeo4jDatabase),
		Strategy:      lookup(KeyStrategy),
		LogLevel:      lookup(KeyLogLevel),
		Neo4jImage:    lookup(KeyNeo4jImage),
		ContainerName: lookup(KeyContainerName),
		Backend:       strings.ToLower(lookup(KeyBackend)),
		PGHost:        lookup(KeyPGHost),
		PGPort:        lookup(KeyPGPort),
		PGUser:        lookup(KeyPGUser),
		PGPassword:    lookup(KeyPGPassword),
		PGDatabase:    lookup(KeyPGDatabase),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the values that every command depends on. Database
// credentials are checked separately by ValidateNeo4j.
func (c *Config) Validate() error {
	if _, err := priority.LookupStrategy(c.Strategy); err != nil {
		return fmt.Errorf("%s: %w", KeyStrategy, err)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%s: %w", KeyLogLevel, err)
	}
	if err := validateBackend(c.Backend); err != nil {
		return fmt.Errorf("%s: %w", KeyBackend, err)
	}
	return nil
}

// ValidateStore checks the connection fields of the selected backend.
func (c *Config) ValidateStore() error {
	if c.Backend == BackendAGE {
		return c.ValidatePostgres()
	}
	return c.ValidateNeo4j()
}

// ValidatePostgres checks that all PostgreSQL connection fields are set.
func (c *Config) ValidatePostgres() error {
	var missing []string

	for key, value := range map[string]string{
		KeyPGHost:     c.PGHost,
		KeyPGPort:     c.PGPort,
		KeyPGUser:     c.PGUser,
		KeyPGPassword: c.PGPassword,
		KeyPGDatabase: c.PGDatabase,
	} {
		if value == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required configuration fields: %s", strings.Join(missing, ", "))
	}

	return nil
}

// ValidateNeo4j checks that all database connection fields are set.
func (c *Config) ValidateNeo4j() error {
	var missing []string

	if c.Neo4jURI == "" {
		missing = append(missing, KeyNeo4jURI)
	}
	if c.Neo4jUsername == "" {
		missing = append(missing, KeyNeo4jUsername)
	}
	if c.Neo4jPassword == "" {
		missing = append(missing, KeyNeo4jPassword)
	}
	if c.Neo4jDatabase == "" {
		missing = append(missing, KeyNeo4jDatabase)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration fields: %s", strings.Join(missing, ", "))
	}

	return nil
}

// Neo4j returns the driver connection settings.
func (c *Config) Neo4j() neo4j.Config {
	return neo4j.Config{
		URI:      c.Neo4jURI,
		Username: c.Neo4jUsername,
		Password: c.Neo4jPassword,
		Database: c.Neo4jDatabase,
	}
}

// Postgres returns the PostgreSQL/AGE connection settings.
func (c *Config) Postgres() graph.Config {
	return graph.Config{
		Host:     c.PGHost,
		Port:     c.PGPort,
		Username: c.PGUser,
		Password: c.PGPassword,
		Database: c.PGDatabase,
	}
}

// Container returns the settings for a local Neo4j container matching the
// configured credentials and bolt port.
func (c *Config) Container() *docker.ContainerConfig {
	return &docker.ContainerConfig{
		Name:     c.ContainerName,
		Image:    c.Neo4jImage,
		BoltPort: docker.BoltPortFromURI(c.Neo4jURI),
		Username: c.Neo4jUsername,
		Password: c.Neo4jPassword,
	}
}

// SlogLevel returns the configured log level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	level, err := ParseLogLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLogLevel accepts debug, info, warn or error in any case.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q (use debug, info, warn or error)", s)
	}
	return level, nil
}

// IsKnownKey reports whether key is a recognized configuration key.
func IsKnownKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// GetConfigPath returns the full path to the .env file in the given directory.
func GetConfigPath(dir string) string {
	return filepath.Join(dir, ".env")
}

// Set updates or creates a configuration value in the .env file.
func Set(dir, key, value string) error {
	return writeValue(GetConfigPath(dir), key, value)
}

// Get retrieves a configuration value from the .env file.
func Get(dir, key string) (string, error) {
	return readValue(GetConfigPath(dir), key)
}

// List returns the entries of the .env file sorted by key.
func List(dir string) ([]Entry, error) {
	return listFile(GetConfigPath(dir))
}

// Entry is one key/value pair of a config file.
type Entry struct {
	Key   string
	Value string
}

func readEnvFile(path string) map[string]string {
	envMap, err := godotenv.Read(path)
	if err != nil {
		return make(map[string]string)
	}
	return envMap
}

func writeValue(path, key, value string) error {
	if err := validateValue(key, value); err != nil {
		return err
	}
	envMap := readEnvFile(path)
	envMap[key] = value
	return godotenv.Write(envMap, path)
}

func readValue(path, key string) (string, error) {
	envMap, err := godotenv.Read(path)
	if err != nil {
		return "", fmt.Errorf("failed to read config: %w", err)
	}

	value, ok := envMap[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in configuration", key)
	}

	return value, nil
}

func listFile(path string) ([]Entry, error) {
	envMap, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	entries := make([]Entry, 0, len(envMap))
	for k, v := range envMap {
		entries = append(entries, Entry{Key: k, Value: v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// validateValue rejects values that Load would refuse later.
func validateValue(key, value string) error {
	switch key {
	case KeyStrategy:
		if _, err := priority.LookupStrategy(value); err != nil {
			return err
		}
	case KeyLogLevel:
		if _, err := ParseLogLevel(value); err != nil {
			return err
		}
	case KeyBackend:
		return validateBackend(strings.ToLower(value))
	}
	return nil
}

func validateBackend(b string) error {
	if b != BackendNeo4j && b != BackendAGE {
		return fmt.Errorf("unknown backend %q (use %s or %s)", b, BackendNeo4j, BackendAGE)
	}
	return nil
}
