// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DatabaseFile is the name of the collection database inside the data path.
const DatabaseFile = "scentlog.db"

// Config holds the application configuration.
type Config struct {
	App        AppConfig
	Logger     LoggerConfig
	Data       DataConfig
	Server     ServerConfig
	Collection CollectionConfig
	RateLimit  RateLimitConfig
	Metrics    MetricsConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds collection storage configuration.
type DataConfig struct {
	BasePath string
}

// DatabasePath returns the path of the collection database.
func (d DataConfig) DatabasePath() string {
	return filepath.Join(d.BasePath, DatabaseFile)
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	CORSOrigins  []string      // Allowed browser origins (default: *)
}

// CollectionConfig holds the thresholds used when scoring and filtering.
type CollectionConfig struct {
	// LowSampleThreshold flags vote tallies smaller than this as sparse (default: 30)
	LowSampleThreshold int
	// PresenceThreshold is the community count at which a season, time or
	// gender option counts as present in filters (default: 10)
	PresenceThreshold int
}

// RateLimitConfig holds the limits applied to mutating API routes.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// MetricsConfig holds Prometheus exposition configuration.
type MetricsConfig struct {
	Enabled bool
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	// Define command-line flags.
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for the collection database")

	// Server flags
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := flag.String("cors-origins", "", "Comma-separated allowed origins (default: *)")

	// Collection flags
	lowSample := flag.String("low-sample-threshold", "", "Vote count below which data is flagged as sparse (default: 30)")
	presence := flag.String("presence-threshold", "", "Community votes needed for a season or gender to count (default: 10)")

	// Rate limit and metrics flags
	rateLimitRPS := flag.String("rate-limit-rps", "", "Mutating requests per second per client (default: 20)")
	rateLimitBurst := flag.String("rate-limit-burst", "", "Burst size for mutating requests (default: 40)")
	metricsEnabled := flag.String("metrics-enabled", "", "Expose Prometheus metrics at /metrics (default: true)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	// Parse flags but don't exit on error - we want to handle it gracefully.
	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg, err := build(configFlags{
		env:            *env,
		logLevel:       *logLevel,
		dataPath:       *dataPath,
		serverPort:     *serverPort,
		readTimeout:    *readTimeout,
		writeTimeout:   *writeTimeout,
		idleTimeout:    *idleTimeout,
		corsOrigins:    *corsOrigins,
		lowSample:      *lowSample,
		presence:       *presence,
		rateLimitRPS:   *rateLimitRPS,
		rateLimitBurst: *rateLimitBurst,
		metricsEnabled: *metricsEnabled,
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// configFlags carries raw flag values into build.
type configFlags struct {
	env, logLevel, dataPath                            string
	serverPort, readTimeout, writeTimeout, idleTimeout string
	corsOrigins                                        string
	lowSample, presence                                string
	rateLimitRPS, rateLimitBurst, metricsEnabled       string
}

// build resolves every value with flag > env > default precedence.
func build(f configFlags) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(f.env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(f.logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(f.dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Port:        getConfigValue(f.serverPort, "SERVER_PORT", "8080"),
			CORSOrigins: splitList(getConfigValue(f.corsOrigins, "CORS_ALLOWED_ORIGINS", "*")),
		},
		Collection: CollectionConfig{
			LowSampleThreshold: getIntConfigValue(f.lowSample, "LOW_SAMPLE_THRESHOLD", 30),
			PresenceThreshold:  getIntConfigValue(f.presence, "PRESENCE_THRESHOLD", 10),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getFloatConfigValue(f.rateLimitRPS, "RATE_LIMIT_RPS", 20),
			Burst:             getIntConfigValue(f.rateLimitBurst, "RATE_LIMIT_BURST", 40),
		},
		Metrics: MetricsConfig{
			Enabled: getBoolConfigValue(f.metricsEnabled, "METRICS_ENABLED", true),
		},
	}

	// Parse server timeouts.
	timeouts := []struct {
		flagValue, envKey, def string
		target                 *time.Duration
	}{
		{f.readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{f.writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", &cfg.Server.WriteTimeout},
		{f.idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
	}
	for _, t := range timeouts {
		raw := getConfigValue(t.flagValue, t.envKey, t.def)
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", strings.ToLower(t.envKey), raw, err)
		}
		*t.target = d
	}

	// Expand and validate data path.
	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if c.Collection.LowSampleThreshold <= 0 {
		return fmt.Errorf("low sample threshold must be positive, got %d", c.Collection.LowSampleThreshold)
	}
	if c.Collection.PresenceThreshold <= 0 {
		return fmt.Errorf("presence threshold must be positive, got %d", c.Collection.PresenceThreshold)
	}

	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("rate limit rps and burst must be positive")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute.
// Defaults to ~/Scentlog/data.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Scentlog", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result float64
	if _, err := fmt.Sscanf(strValue, "%g", &result); err != nil {
		return defaultValue
	}
	return result
}

// splitList splits a comma-separated value, dropping blank entries.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
