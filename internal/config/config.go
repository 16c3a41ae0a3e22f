package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/abrezinsky/livevote/internal/auth"
)

// Config holds the server settings
type Config struct {
	Port        int
	DBPath      string
	LogLevel    string
	LogFormat   string
	Secret      string
	BaseURL     string
	HTTPLogging bool
	ShowVersion bool

	// SecretGenerated is set when no secret was configured
	SecretGenerated bool
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// LoadEnvFiles loads the first .env style file found. Missing files are not an error.
func LoadEnvFiles(paths ...string) (string, error) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return "", fmt.Errorf("load %s: %w", p, err)
		}
		return p, nil
	}
	return "", nil
}

// Parse reads flags from args, falling back to environment variables and defaults
func Parse(args []string) (*Config, error) {
	return parse(args, os.Stderr)
}

func parse(args []string, usageOut io.Writer) (*Config, error) {
	cfg := &Config{}
	fs := flag.NewFlagSet("livevote", flag.ContinueOnError)
	fs.SetOutput(usageOut)

	port, err := envInt("PORT", 8081)
	if err != nil {
		return nil, err
	}
	httpLog, err := envBool("HTTP_LOGGING", false)
	if err != nil {
		return nil, err
	}

	fs.IntVar(&cfg.Port, "port", port, "HTTP server port (env PORT)")
	fs.StringVar(&cfg.DBPath, "db", envString("LIVEVOTE_DB", "livevote.db"), "SQLite database path (env LIVEVOTE_DB)")
	fs.StringVar(&cfg.LogLevel, "loglevel", envString("LOG_LEVEL", "info"), "Log level: debug, info, warn, error (env LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "logformat", envString("LOG_FORMAT", "text"), "Log format: text or json (env LOG_FORMAT)")
	fs.StringVar(&cfg.Secret, "secret", envString("LIVEVOTE_SECRET", ""), "Session signing key, generated if empty (env LIVEVOTE_SECRET)")
	fs.StringVar(&cfg.BaseURL, "baseurl", envString("BASE_URL", ""), "Public base URL for join links (env BASE_URL)")
	fs.BoolVar(&cfg.HTTPLogging, "httplog", httpLog, "Log every HTTP request (env HTTP_LOGGING)")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version and exit")

	fs.Usage = func() {
		fmt.Fprintf(usageOut, "LiveVote - live presentation voting\n\nUsage:\n  livevote [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.Secret == "" {
		cfg.Secret = auth.GenerateSecret()
		cfg.SecretGenerated = true
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.DBPath == "" {
		return errors.New("database path is required")
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.LogFormat)
	}
	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
