// Package config assembles the runtime configuration of the shop.
//
// Precedence, lowest first: built-in defaults, a .env file, process
// environment (SHOP_* and DATABASE_URL), command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/bcrypt"
)

// Session backends.
const (
	SessionMemory = "memory"
	SessionRedis  = "redis"
)

// Config holds every tunable of the server and the CLI.
type Config struct {
	DatabaseURL string
	MaxConns    int32

	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	SessionBackend string
	RedisURL       string
	SessionTTL     time.Duration
	CookieName     string
	CookieSecure   bool

	RateLimit float64 // requests per second per client; 0 disables limiting
	RateBurst int

	BcryptCost int

	LogLevel  string
	LogFormat string

	ResetSchema bool
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		DatabaseURL:     "postgres://localhost:5432/shop?sslmode=disable",
		MaxConns:        10,
		HTTPAddr:        ":8000",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		SessionBackend:  SessionMemory,
		RedisURL:        "redis://localhost:6379/0",
		SessionTTL:      14 * 24 * time.Hour,
		CookieName:      "session",
		RateLimit:       5,
		RateBurst:       10,
		BcryptCost:      bcrypt.DefaultCost,
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// BindFlags registers one flag per setting, defaulting to the current values of c.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.DatabaseURL, "db", c.DatabaseURL, "Database connection URL")
	fs.Int32Var(&c.MaxConns, "db-max-conns", c.MaxConns, "Maximum pooled database connections")
	fs.StringVar(&c.HTTPAddr, "addr", c.HTTPAddr, "HTTP listen address")
	fs.DurationVar(&c.ReadTimeout, "read-timeout", c.ReadTimeout, "HTTP read timeout")
	fs.DurationVar(&c.WriteTimeout, "write-timeout", c.WriteTimeout, "HTTP write timeout")
	fs.DurationVar(&c.IdleTimeout, "idle-timeout", c.IdleTimeout, "HTTP idle timeout")
	fs.DurationVar(&c.ShutdownTimeout, "shutdown-timeout", c.ShutdownTimeout, "Graceful shutdown timeout")
	fs.StringVar(&c.SessionBackend, "session-backend", c.SessionBackend, "Session store: memory or redis")
	fs.StringVar(&c.RedisURL, "redis-url", c.RedisURL, "Redis URL for the redis session backend")
	fs.DurationVar(&c.SessionTTL, "session-ttl", c.SessionTTL, "Session lifetime")
	fs.StringVar(&c.CookieName, "cookie-name", c.CookieName, "Session cookie name")
	fs.BoolVar(&c.CookieSecure, "cookie-secure", c.CookieSecure, "Mark the session cookie Secure")
	fs.Float64Var(&c.RateLimit, "rate-limit", c.RateLimit, "Requests per second per client on mutating routes (0 disables)")
	fs.IntVar(&c.RateBurst, "rate-burst", c.RateBurst, "Rate limiter burst size")
	fs.IntVar(&c.BcryptCost, "bcrypt-cost", c.BcryptCost, "bcrypt cost for password hashes")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log format: json or console")
	fs.BoolVar(&c.ResetSchema, "reset-schema", c.ResetSchema, "Drop and recreate all tables at startup")
}

type binding struct {
	env   string
	flag  string
	apply func(c *Config, v string) error
}

var bindings = []binding{
	{"DATABASE_URL", "db", func(c *Config, v string) error { c.DatabaseURL = v; return nil }},
	{"SHOP_DB_MAX_CONNS", "db-max-conns", func(c *Config, v string) error {
		n, err := strconv.ParseInt(v, 10, 32)
		c.MaxConns = int32(n)
		return err
	}},
	{"SHOP_ADDR", "addr", func(c *Config, v string) error { c.HTTPAddr = v; return nil }},
	{"SHOP_READ_TIMEOUT", "read-timeout", durationInto(func(c *Config) *time.Duration { return &c.ReadTimeout })},
	{"SHOP_WRITE_TIMEOUT", "write-timeout", durationInto(func(c *Config) *time.Duration { return &c.WriteTimeout })},
	{"SHOP_IDLE_TIMEOUT", "idle-timeout", durationInto(func(c *Config) *time.Duration { return &c.IdleTimeout })},
	{"SHOP_SHUTDOWN_TIMEOUT", "shutdown-timeout", durationInto(func(c *Config) *time.Duration { return &c.ShutdownTimeout })},
	{"SHOP_SESSION_BACKEND", "session-backend", func(c *Config, v string) error { c.SessionBackend = v; return nil }},
	{"SHOP_REDIS_URL", "redis-url", func(c *Config, v string) error { c.RedisURL = v; return nil }},
	{"SHOP_SESSION_TTL", "session-ttl", durationInto(func(c *Config) *time.Duration { return &c.SessionTTL })},
	{"SHOP_COOKIE_NAME", "cookie-name", func(c *Config, v string) error { c.CookieName = v; return nil }},
	{"SHOP_COOKIE_SECURE", "cookie-secure", func(c *Config, v string) (err error) {
		c.CookieSecure, err = strconv.ParseBool(v)
		return err
	}},
	{"SHOP_RATE_LIMIT", "rate-limit", func(c *Config, v string) (err error) {
		c.RateLimit, err = strconv.ParseFloat(v, 64)
		return err
	}},
	{"SHOP_RATE_BURST", "rate-burst", func(c *Config, v string) (err error) {
		c.RateBurst, err = strconv.Atoi(v)
		return err
	}},
	{"SHOP_BCRYPT_COST", "bcrypt-cost", func(c *Config, v string) (err error) {
		c.BcryptCost, err = strconv.Atoi(v)
		return err
	}},
	{"SHOP_LOG_LEVEL", "log-level", func(c *Config, v string) error { c.LogLevel = v; return nil }},
	{"SHOP_LOG_FORMAT", "log-format", func(c *Config, v string) error { c.LogFormat = v; return nil }},
	{"SHOP_RESET_SCHEMA", "reset-schema", func(c *Config, v string) (err error) {
		c.ResetSchema, err = strconv.ParseBool(v)
		return err
	}},
}

func durationInto(field func(c *Config) *time.Duration) func(c *Config, v string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*field(c) = d
		return nil
	}
}

// ApplyEnv copies non-empty environment values into c, skipping settings whose
// flag was set explicitly.
func (c *Config) ApplyEnv(lookup func(string) (string, bool), changed func(flag string) bool) error {
	for _, b := range bindings {
		if changed != nil && changed(b.flag) {
			continue
		}
		v, ok := lookup(b.env)
		if !ok || v == "" {
			continue
		}
		if err := b.apply(c, v); err != nil {
			return fmt.Errorf("invalid %s=%q: %w", b.env, v, err)
		}
	}
	return nil
}

// Load reads envFiles (".env" when none are given) into the process
// environment, applies it to c underneath any flags changed on flags, and validates.
// Missing env files are not an error.
func Load(c *Config, flags *pflag.FlagSet, envFiles ...string) error {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load env file: %w", err)
	}

	var changed func(string) bool
	if flags != nil {
		changed = flags.Changed
	}
	if err := c.ApplyEnv(os.LookupEnv, changed); err != nil {
		return err
	}
	return c.Validate()
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("database URL is required"))
	}
	if c.MaxConns < 1 {
		errs = append(errs, errors.New("db-max-conns must be at least 1"))
	}
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	switch c.SessionBackend {
	case SessionMemory:
	case SessionRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("redis URL is required for the redis session backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown session backend %q", c.SessionBackend))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("session TTL must be positive"))
	}
	if c.CookieName == "" {
		errs = append(errs, errors.New("cookie name is required"))
	}
	if c.RateLimit < 0 {
		errs = append(errs, errors.New("rate limit must not be negative"))
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		errs = append(errs, errors.New("rate burst must be at least 1"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.LogLevel))
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		errs = append(errs, fmt.Errorf("invalid log format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}
