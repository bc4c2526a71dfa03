package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable.
type Config struct {
	Env        string        // application environment (e.g. "dev", "prod")
	Port       string        // HTTP port to listen on
	DBUser     string        // database username
	DBPass     string        // database password (optional)
	DBHost     string        // database host address
	DBPort     string        // database port number
	DBName     string        // database name
	JWTSecret  string        // base64 key material used to sign access tokens
	JWTTTL     time.Duration // access token lifetime
	BcryptCost int           // bcrypt cost for password hashing
	LogLevel   string        // logrus level name
	LogFormat  string        // "json" or "text"

	// Bootstrap admin; all three must be set for seeding to run.
	AdminUsername string
	AdminEmail    string
	AdminPassword string

	AMQP      AMQPConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
}

// SeedAdmin reports whether bootstrap admin credentials were supplied.
func (c Config) SeedAdmin() bool {
	return c.AdminUsername != "" && c.AdminEmail != "" && c.AdminPassword != ""
}

// Load reads an optional .env file and then the environment. Every missing
// or malformed required variable is reported in the returned error.
func Load() (Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	var r reader
	cfg := Config{
		Env:           r.must("APP_ENV"),
		Port:          r.must("APP_PORT"),
		DBUser:        r.must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"),
		DBHost:        r.must("DB_HOST"),
		DBPort:        r.must("DB_PORT"),
		DBName:        r.must("DB_NAME"),
		JWTSecret:     r.must("JWT_SECRET"),
		JWTTTL:        r.duration("JWT_TTL", 24*time.Hour),
		BcryptCost:    r.int("BCRYPT_COST", 10),
		LogLevel:      envStr("LOG_LEVEL", "info"),
		LogFormat:     envStr("LOG_FORMAT", "json"),
		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AMQP:          LoadAMQPConfig(),
		Redis:         LoadRedisConfig(),
		RateLimit:     LoadRateLimitConfig(),
		Cache:         LoadCacheConfig(),
	}
	if err := errors.Join(r.errs...); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate checks values that parse fine but make no sense.
func (c Config) Validate() error {
	var errs []error
	if p, err := strconv.Atoi(c.Port); err != nil || p < 1 || p > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a TCP port, got %q", c.Port))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL))
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat))
	}
	if (c.AdminUsername != "" || c.AdminEmail != "" || c.AdminPassword != "") && !c.SeedAdmin() {
		errs = append(errs, errors.New("ADMIN_USERNAME, ADMIN_EMAIL and ADMIN_PASSWORD must be set together"))
	}
	return errors.Join(errs...)
}

// reader collects lookup errors so Load can report all of them at once.
type reader struct {
	errs []error
}

// must retrieves the value of a required environment variable.
func (r *reader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		r.errs = append(r.errs, fmt.Errorf("missing required env var: %s", key))
	}
	return v
}

// int is like envInt but records a malformed value instead of ignoring it.
func (r *reader) int(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid int for %s: %q", key, s))
	}
	return n
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid duration for %s: %q", key, s))
	}
	return d
}
