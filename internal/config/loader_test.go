package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var portalKeys = []string{
	EnvFileVariable,
	"PORTAL_HTTP_PORT",
	"PORTAL_DATABASE_URL",
	"PORTAL_SESSION_SECRET",
	"PORTAL_SPEAKER_TOKEN_TTL",
	"PORTAL_ADMIN_SESSION_TTL",
	"PORTAL_SESSION_PRUNE_SCHEDULE",
	"PORTAL_SCHEDULE_CACHE_TTL",
	"PORTAL_MAPS_FILE",
	"PORTAL_DEV_LOGIN",
	"PORTAL_ADMIN_EMAIL",
	"PORTAL_ADMIN_PASSWORD",
	"PORTAL_LOG_LEVEL",
	"PORTAL_SHUTDOWN_GRACE",
	"PORTAL_SERVER_URL",
	"PORTAL_STATE_DIR",
	"PORTAL_HTTP_TIMEOUT",
}

func clearPortalEnv(t *testing.T) {
	t.Helper()
	for _, key := range portalKeys {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearPortalEnv(t)
		t.Setenv("PORTAL_SESSION_SECRET", "super-secret")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.DatabaseURL != "file:portal.db" {
			t.Fatalf("unexpected default database URL: %q", cfg.DatabaseURL)
		}
		if cfg.SpeakerTokenTTL != 72*time.Hour || cfg.AdminSessionTTL != 12*time.Hour {
			t.Fatalf("unexpected TTL defaults: %s, %s", cfg.SpeakerTokenTTL, cfg.AdminSessionTTL)
		}
		if cfg.SessionPruneSpec != "@every 15m" || cfg.ScheduleCacheTTL != 30*time.Second {
			t.Fatalf("unexpected background defaults: %q, %s", cfg.SessionPruneSpec, cfg.ScheduleCacheTTL)
		}
		if cfg.DeveloperLogin {
			t.Fatal("developer login must be off by default")
		}
	})

	t.Run("errors when required values are missing", func(t *testing.T) {
		clearPortalEnv(t)

		_, err := Load()
		if err == nil {
			t.Fatal("expected error when the session secret is missing")
		}
		if err.Error() != "missing required environment variables: PORTAL_SESSION_SECRET" {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("reports every invalid value together", func(t *testing.T) {
		clearPortalEnv(t)
		t.Setenv("PORTAL_HTTP_PORT", "http")
		t.Setenv("PORTAL_SPEAKER_TOKEN_TTL", "-1h")
		t.Setenv("PORTAL_SESSION_PRUNE_SCHEDULE", "whenever")
		t.Setenv("PORTAL_DEV_LOGIN", "maybe")
		t.Setenv("PORTAL_ADMIN_EMAIL", "ops@example.com")

		_, err := Load()
		if err == nil {
			t.Fatal("expected error")
		}
		msg := err.Error()
		for _, want := range []string{"PORTAL_SESSION_SECRET", "PORTAL_ADMIN_PASSWORD", "PORTAL_HTTP_PORT", "PORTAL_SPEAKER_TOKEN_TTL", "PORTAL_SESSION_PRUNE_SCHEDULE", "PORTAL_DEV_LOGIN"} {
			if !strings.Contains(msg, want) {
				t.Fatalf("error %q does not mention %s", msg, want)
			}
		}
	})

	t.Run("parses explicit values", func(t *testing.T) {
		clearPortalEnv(t)
		t.Setenv("PORTAL_SESSION_SECRET", "secret-value")
		t.Setenv("PORTAL_HTTP_PORT", "9090")
		t.Setenv("PORTAL_DATABASE_URL", "postgres://portal@db/portal")
		t.Setenv("PORTAL_ADMIN_SESSION_TTL", "2h")
		t.Setenv("PORTAL_SESSION_PRUNE_SCHEDULE", "*/5 * * * *")
		t.Setenv("PORTAL_SCHEDULE_CACHE_TTL", "0s")
		t.Setenv("PORTAL_DEV_LOGIN", "true")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.HTTPPort != 9090 || cfg.DatabaseURL != "postgres://portal@db/portal" {
			t.Fatalf("unexpected server values: %+v", cfg)
		}
		if cfg.AdminSessionTTL != 2*time.Hour || cfg.ScheduleCacheTTL != 0 {
			t.Fatalf("unexpected durations: %s, %s", cfg.AdminSessionTTL, cfg.ScheduleCacheTTL)
		}
		if cfg.SessionPruneSpec != "*/5 * * * *" || !cfg.DeveloperLogin {
			t.Fatalf("unexpected values: %+v", cfg)
		}
	})

	t.Run("reads an env file without overriding the environment", func(t *testing.T) {
		clearPortalEnv(t)
		path := filepath.Join(t.TempDir(), "portal.env")
		content := "PORTAL_SESSION_SECRET=from-file\nPORTAL_HTTP_PORT=7000\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write env file: %v", err)
		}
		t.Setenv(EnvFileVariable, path)
		t.Setenv("PORTAL_HTTP_PORT", "7100")
		// godotenv only fills variables that are unset.
		os.Unsetenv("PORTAL_SESSION_SECRET")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.SessionSecret != "from-file" || cfg.HTTPPort != 7100 {
			t.Fatalf("unexpected values: secret=%q port=%d", cfg.SessionSecret, cfg.HTTPPort)
		}
	})

	t.Run("missing explicit env file is an error", func(t *testing.T) {
		clearPortalEnv(t)
		t.Setenv(EnvFileVariable, filepath.Join(t.TempDir(), "absent.env"))

		if _, err := Load(); err == nil {
			t.Fatal("expected error for missing env file")
		}
	})
}

func TestLoadClient(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		clearPortalEnv(t)
		t.Setenv("PORTAL_STATE_DIR", "/tmp/portal-state")

		cfg, err := LoadClient()
		if err != nil {
			t.Fatalf("LoadClient returned error: %v", err)
		}
		if cfg.ServerURL != "http://localhost:8080" || cfg.StateDir != "/tmp/portal-state" || cfg.HTTPTimeout != 0 {
			t.Fatalf("unexpected defaults: %+v", cfg)
		}
		if cfg.LogLevel != "warn" {
			t.Fatalf("expected warn log level, got %q", cfg.LogLevel)
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		clearPortalEnv(t)
		t.Setenv("PORTAL_STATE_DIR", "/tmp/portal-state")
		t.Setenv("PORTAL_SERVER_URL", "localhost")
		t.Setenv("PORTAL_HTTP_TIMEOUT", "soon")

		_, err := LoadClient()
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "PORTAL_SERVER_URL, PORTAL_HTTP_TIMEOUT") {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("trims trailing slash", func(t *testing.T) {
		clearPortalEnv(t)
		t.Setenv("PORTAL_STATE_DIR", "/tmp/portal-state")
		t.Setenv("PORTAL_SERVER_URL", "https://portal.example.com/")
		t.Setenv("PORTAL_HTTP_TIMEOUT", "5s")

		cfg, err := LoadClient()
		if err != nil {
			t.Fatalf("LoadClient returned error: %v", err)
		}
		if cfg.ServerURL != "https://portal.example.com" || cfg.HTTPTimeout != 5*time.Second {
			t.Fatalf("unexpected values: %+v", cfg)
		}
	})
}
