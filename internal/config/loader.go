package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// EnvFileVariable names the variable that overrides the .env path.
const EnvFileVariable = "PORTAL_ENV_FILE"

// Config captures environment driven configuration values for the portal server.
type Config struct {
	HTTPPort            int
	DatabaseURL         string
	SessionSecret       string
	SpeakerTokenTTL     time.Duration
	AdminSessionTTL     time.Duration
	SessionPruneSpec    string
	ScheduleCacheTTL    time.Duration
	MapsFile            string
	DeveloperLogin      bool
	AdminEmail          string
	AdminPassword       string
	LogLevel            string
	ShutdownGracePeriod time.Duration
}

// ClientConfig captures configuration for the command line client.
type ClientConfig struct {
	ServerURL   string
	StateDir    string
	HTTPTimeout time.Duration
	LogLevel    string
}

// Load reads an optional .env file and parses server configuration from the
// process environment. Every missing or invalid key is reported in one error.
func Load() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		HTTPPort:            8080,
		DatabaseURL:         "file:portal.db",
		SpeakerTokenTTL:     72 * time.Hour,
		AdminSessionTTL:     12 * time.Hour,
		SessionPruneSpec:    "@every 15m",
		ScheduleCacheTTL:    30 * time.Second,
		LogLevel:            "info",
		ShutdownGracePeriod: 10 * time.Second,
	}
	r := &reader{}

	if port, ok := r.int("PORTAL_HTTP_PORT"); ok {
		if port <= 0 || port > 65535 {
			r.invalid = append(r.invalid, "PORTAL_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}
	if dsn := r.string("PORTAL_DATABASE_URL"); dsn != "" {
		cfg.DatabaseURL = dsn
	}
	if secret := r.string("PORTAL_SESSION_SECRET"); secret == "" {
		r.missing = append(r.missing, "PORTAL_SESSION_SECRET")
	} else {
		cfg.SessionSecret = secret
	}
	if ttl, ok := r.positiveDuration("PORTAL_SPEAKER_TOKEN_TTL"); ok {
		cfg.SpeakerTokenTTL = ttl
	}
	if ttl, ok := r.positiveDuration("PORTAL_ADMIN_SESSION_TTL"); ok {
		cfg.AdminSessionTTL = ttl
	}
	if spec := r.string("PORTAL_SESSION_PRUNE_SCHEDULE"); spec != "" {
		if _, err := cron.ParseStandard(spec); err != nil {
			r.invalid = append(r.invalid, "PORTAL_SESSION_PRUNE_SCHEDULE")
		} else {
			cfg.SessionPruneSpec = spec
		}
	}
	if raw := r.string("PORTAL_SCHEDULE_CACHE_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl < 0 {
			r.invalid = append(r.invalid, "PORTAL_SCHEDULE_CACHE_TTL")
		} else {
			cfg.ScheduleCacheTTL = ttl
		}
	}
	cfg.MapsFile = r.string("PORTAL_MAPS_FILE")
	if dev, ok := r.bool("PORTAL_DEV_LOGIN"); ok {
		cfg.DeveloperLogin = dev
	}
	cfg.AdminEmail = r.string("PORTAL_ADMIN_EMAIL")
	cfg.AdminPassword = r.string("PORTAL_ADMIN_PASSWORD")
	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		if cfg.AdminEmail == "" {
			r.missing = append(r.missing, "PORTAL_ADMIN_EMAIL")
		} else {
			r.missing = append(r.missing, "PORTAL_ADMIN_PASSWORD")
		}
	}
	if level := r.string("PORTAL_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if grace, ok := r.positiveDuration("PORTAL_SHUTDOWN_GRACE"); ok {
		cfg.ShutdownGracePeriod = grace
	}

	if err := r.err(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadClient reads an optional .env file and parses CLI configuration.
func LoadClient() (ClientConfig, error) {
	if err := loadEnvFile(); err != nil {
		return ClientConfig{}, err
	}

	cfg := ClientConfig{
		ServerURL: "http://localhost:8080",
		LogLevel:  "warn",
	}
	r := &reader{}

	if raw := r.string("PORTAL_SERVER_URL"); raw != "" {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			r.invalid = append(r.invalid, "PORTAL_SERVER_URL")
		} else {
			cfg.ServerURL = strings.TrimRight(raw, "/")
		}
	}
	if dir := r.string("PORTAL_STATE_DIR"); dir != "" {
		cfg.StateDir = dir
	} else {
		base, err := os.UserConfigDir()
		if err != nil {
			r.missing = append(r.missing, "PORTAL_STATE_DIR")
		} else {
			cfg.StateDir = filepath.Join(base, "conference-portal")
		}
	}
	if raw := r.string("PORTAL_HTTP_TIMEOUT"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil || timeout < 0 {
			r.invalid = append(r.invalid, "PORTAL_HTTP_TIMEOUT")
		} else {
			cfg.HTTPTimeout = timeout
		}
	}
	if level := r.string("PORTAL_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	if err := r.err(); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

// loadEnvFile applies PORTAL_ENV_FILE, or ./.env when present. Variables
// already set in the environment win over the file.
func loadEnvFile() error {
	path := strings.TrimSpace(os.Getenv(EnvFileVariable))
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

type reader struct {
	missing []string
	invalid []string
}

func (r *reader) string(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func (r *reader) int(key string) (int, bool) {
	raw := r.string(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		r.invalid = append(r.invalid, key)
		return 0, false
	}
	return v, true
}

func (r *reader) bool(key string) (bool, bool) {
	raw := r.string(key)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		r.invalid = append(r.invalid, key)
		return false, false
	}
	return v, true
}

func (r *reader) positiveDuration(key string) (time.Duration, bool) {
	raw := r.string(key)
	if raw == "" {
		return 0, false
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		r.invalid = append(r.invalid, key)
		return 0, false
	}
	return v, true
}

func (r *reader) err() error {
	var errs []error
	if len(r.missing) > 0 {
		errs = append(errs, fmt.Errorf("missing required environment variables: %s", strings.Join(r.missing, ", ")))
	}
	if len(r.invalid) > 0 {
		errs = append(errs, fmt.Errorf("invalid environment variable values: %s", strings.Join(r.invalid, ", ")))
	}
	return errors.Join(errs...)
}
