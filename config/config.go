// Package config resolves mcpchat settings from the environment and ~/.mcpchat.env.
package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"mcpchat/backend"
)

const (
	EnvURL         = "MCPCHAT_URL"
	EnvScriptPath  = "MCPCHAT_SCRIPT_PATH"
	EnvTimeout     = "MCPCHAT_TIMEOUT"
	EnvAutoConnect = "MCPCHAT_AUTO_CONNECT"
	EnvHistoryFile = "MCPCHAT_HISTORY_FILE"
	EnvLogFile     = "MCPCHAT_LOG_FILE"
	EnvLogLevel    = "MCPCHAT_LOG_LEVEL"
)

const DefaultTimeout = 300 * time.Second

type Config struct {
	// BaseURL is the backend's address.
	BaseURL string
	// ScriptPath is the MCP server script the backend should launch on /connect.
	ScriptPath  string
	Timeout     time.Duration
	AutoConnect bool
	HistoryFile string
	LogFile     string
	LogLevel    logrus.Level
}

// DefaultEnvFile returns ~/.mcpchat.env, or "" when there is no home directory.
func DefaultEnvFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".mcpchat.env")
}

// Load reads envFile (a missing file is not an error) and the process
// environment, which takes precedence over the file.
func Load(envFile string) (*Config, error) {
	fileVars := map[string]string{}
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileVars = vars
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}

	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Warning: Could not get home directory: %v", err)
		home = "."
	}

	return parse(lookup, home)
}

func parse(lookup func(string) (string, bool), home string) (*Config, error) {
	cfg := &Config{
		BaseURL:     backend.DefaultBaseURL,
		Timeout:     DefaultTimeout,
		AutoConnect: true,
		HistoryFile: filepath.Join(home, ".mcpchat_history"),
		LogFile:     filepath.Join(home, ".mcpchat.log"),
		LogLevel:    logrus.InfoLevel,
	}

	if v, ok := lookup(EnvURL); ok && v != "" {
		cfg.BaseURL = v
	}
	if v, ok := lookup(EnvScriptPath); ok {
		cfg.ScriptPath = v
	}
	if v, ok := lookup(EnvTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvTimeout, err)
		}
		cfg.Timeout = d
	}
	if v, ok := lookup(EnvAutoConnect); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvAutoConnect, err)
		}
		cfg.AutoConnect = b
	}
	if v, ok := lookup(EnvHistoryFile); ok && v != "" {
		cfg.HistoryFile = v
	}
	if v, ok := lookup(EnvLogFile); ok && v != "" {
		cfg.LogFile = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		level, err := logrus.ParseLevel(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that may also have been set from flags after Load.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid backend url %q: %w", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid backend url %q: scheme must be http or https", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid backend url %q: missing host", c.BaseURL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout %s: must not be negative", c.Timeout)
	}
	return nil
}
