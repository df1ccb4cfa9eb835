package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/martinsuchenak/netgen/internal/log"
)

// Config holds the application configuration
type Config struct {
	DataDir       string // plan history location
	ListenAddr    string // server bind address
	BearerToken   string // API and MCP auth token, empty disables auth
	RetentionDays int    // prune plans older than this, 0 keeps everything
	PruneSchedule string // cron spec for the retention job
	LogLevel      string
	LogFormat     string
	ConfigFile    string // path to the .env file, if one was loaded
}

// Load resolves configuration with the following priority (highest to
// lowest):
//  1. Command-line parameters (passed as opts)
//  2. .env file (if present in the working directory)
//  3. Environment variables
//  4. Default values
func Load(opts *Config) *Config {
	fileVals := map[string]string{}
	configFile := ""
	if _, err := os.Stat(".env"); err == nil {
		if err := loadEnvFile(".env", fileVals); err != nil {
			log.Warn("Failed to load .env file", "error", err)
		} else {
			configFile = ".env"
		}
	}

	get := func(key string) string {
		return coalesce(fileVals[key], os.Getenv(key))
	}

	cfg := &Config{
		DataDir:       coalesce(get("NETGEN_DATA_DIR"), "./data"),
		ListenAddr:    coalesce(get("NETGEN_LISTEN_ADDR"), ":8080"),
		BearerToken:   get("NETGEN_BEARER_TOKEN"),
		PruneSchedule: coalesce(get("NETGEN_PRUNE_SCHEDULE"), "@daily"),
		LogLevel:      coalesce(get("NETGEN_LOG_LEVEL"), "info"),
		LogFormat:     coalesce(get("NETGEN_LOG_FORMAT"), "auto"),
		ConfigFile:    configFile,
	}
	if v := get("NETGEN_RETENTION_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 0 {
			log.Warn("Ignoring invalid NETGEN_RETENTION_DAYS", "value", v)
		} else {
			cfg.RetentionDays = days
		}
	}

	// CLI options win over everything
	if opts != nil {
		if opts.DataDir != "" {
			cfg.DataDir = opts.DataDir
		}
		if opts.ListenAddr != "" {
			cfg.ListenAddr = opts.ListenAddr
		}
		if opts.BearerToken != "" {
			cfg.BearerToken = opts.BearerToken
		}
		if opts.RetentionDays > 0 {
			cfg.RetentionDays = opts.RetentionDays
		}
		if opts.PruneSchedule != "" {
			cfg.PruneSchedule = opts.PruneSchedule
		}
		if opts.LogLevel != "" {
			cfg.LogLevel = opts.LogLevel
		}
		if opts.LogFormat != "" {
			cfg.LogFormat = opts.LogFormat
		}
	}

	return cfg
}

// loadEnvFile reads KEY=VALUE lines into vals, skipping comments and
// keys without the NETGEN_ prefix.
func loadEnvFile(filename string, vals map[string]string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		if !strings.HasPrefix(key, "NETGEN_") {
			continue
		}
		vals[key] = strings.Trim(strings.TrimSpace(parts[1]), "\"")
	}

	return scanner.Err()
}

// IsMCPEnabled reports whether the MCP endpoint can be served; it
// requires a bearer token.
func (c *Config) IsMCPEnabled() bool {
	return c.BearerToken != ""
}

// String returns a string representation of the config source
func (c *Config) String() string {
	if c.ConfigFile != "" {
		return fmt.Sprintf(".env file (%s)", c.ConfigFile)
	}
	return "environment variables"
}

// coalesce returns the first non-empty string value
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
