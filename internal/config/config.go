// Package config loads server settings from flags, falling back to
// environment variables (optionally read from a .env file).
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/and161185/nutrikeeper/internal/analyzer"
	"github.com/and161185/nutrikeeper/internal/limiter"
)

// Config is the resolved server configuration.
type Config struct {
	Addr           string
	HealthAddr     string
	DSN            string
	JWTKey         string
	AccessTTL      time.Duration
	Analyzer       analyzer.Config
	CORSOrigins    []string
	MaxUploadBytes int64
	Login          limiter.Config
	Location       *time.Location
	Dev            bool
}

// Load reads the optional env file, then parses args. Flags win over env.
func Load(args []string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// a missing file is fine; real env always wins over its contents
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	e := &envReader{}
	var (
		cfg     Config
		cors    string
		tzName  string
		timeout time.Duration
	)
	fs := flag.NewFlagSet("nk-server", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", e.str("ADDR", ":8080"), "HTTP listen address")
	fs.StringVar(&cfg.HealthAddr, "health-addr", e.str("HEALTH_ADDR", ":8081"), "gRPC health listen address, empty disables")
	fs.StringVar(&cfg.DSN, "dsn", e.str("DATABASE_URL", ""), "PostgreSQL DSN")
	fs.StringVar(&cfg.JWTKey, "jwt-key", e.str("JWT_KEY", ""), "HS256 signing key")
	fs.DurationVar(&cfg.AccessTTL, "access-ttl", e.dur("ACCESS_TTL", 24*time.Hour), "access token TTL")
	fs.StringVar(&cfg.Analyzer.APIKey, "openai-key", e.str("OPENAI_API_KEY", ""), "analyzer API key")
	fs.StringVar(&cfg.Analyzer.Model, "openai-model", e.str("OPENAI_MODEL", "gpt-4o"), "analyzer model")
	fs.StringVar(&cfg.Analyzer.BaseURL, "openai-base-url", e.str("OPENAI_BASE_URL", "https://api.openai.com"), "analyzer base URL")
	fs.DurationVar(&timeout, "analyzer-timeout", e.dur("ANALYZER_TIMEOUT", 60*time.Second), "analyzer call timeout")
	fs.Float64Var(&cfg.Analyzer.RPS, "analyzer-rps", e.float("ANALYZER_RPS", 2), "analyzer calls per second, 0 disables throttling")
	fs.IntVar(&cfg.Analyzer.Burst, "analyzer-burst", e.int("ANALYZER_BURST", 4), "analyzer burst")
	fs.StringVar(&cors, "cors-origin", e.str("CORS_ORIGIN", ""), "comma-separated allowed origins")
	fs.Int64Var(&cfg.MaxUploadBytes, "max-upload-bytes", int64(e.int("MAX_UPLOAD_BYTES", 20<<20)), "multipart upload cap")
	fs.DurationVar(&cfg.Login.Window, "login-window", e.dur("LOGIN_WINDOW", 15*time.Minute), "failed login counting window")
	fs.IntVar(&cfg.Login.MaxFails, "login-max-fails", e.int("LOGIN_MAX_FAILS", 5), "failures before blocking")
	fs.DurationVar(&cfg.Login.BlockFor, "login-block-for", e.dur("LOGIN_BLOCK_FOR", 15*time.Minute), "block duration")
	fs.StringVar(&tzName, "tz", e.str("TZ_NAME", "Local"), "IANA zone for calendar days")
	fs.BoolVar(&cfg.Dev, "dev", e.bool("DEV", false), "development mode")

	if e.err != nil {
		return nil, e.err
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.Analyzer.Timeout = timeout
	for _, o := range strings.Split(cors, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("tz %q: %w", tzName, err)
	}
	cfg.Location = loc

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.DSN == "":
		return errors.New("missing database DSN (--dsn or DATABASE_URL)")
	case c.JWTKey == "":
		return errors.New("missing jwt signing key (--jwt-key or JWT_KEY)")
	case c.AccessTTL <= 0:
		return errors.New("access ttl must be positive")
	case c.Analyzer.Timeout <= 0:
		return errors.New("analyzer timeout must be positive")
	case c.MaxUploadBytes <= 0:
		return errors.New("max upload bytes must be positive")
	}
	return nil
}

// envReader collects the first malformed variable instead of failing per call.
type envReader struct{ err error }

func (e *envReader) str(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func (e *envReader) fail(k, v string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("env %s=%q: %w", k, v, err)
	}
}

func (e *envReader) dur(k string, def time.Duration) time.Duration {
	v := e.str(k, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(k, v, err)
		return def
	}
	return d
}

func (e *envReader) int(k string, def int) int {
	v := e.str(k, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(k, v, err)
		return def
	}
	return n
}

func (e *envReader) float(k string, def float64) float64 {
	v := e.str(k, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(k, v, err)
		return def
	}
	return f
}

func (e *envReader) bool(k string, def bool) bool {
	v := e.str(k, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(k, v, err)
		return def
	}
	return b
}
