package main

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/example/conference-portal/internal/campus"
	"github.com/example/conference-portal/internal/client"
	"github.com/example/conference-portal/internal/config"
	"github.com/example/conference-portal/internal/identity"
	"github.com/example/conference-portal/internal/logging"
	"github.com/example/conference-portal/internal/portal"
	"github.com/example/conference-portal/internal/prefs"
	"github.com/example/conference-portal/internal/render"
)

const prefsFileName = "prefs.json"

// clientApp holds the collaborators shared by the client commands.
type clientApp struct {
	logger   *slog.Logger
	remote   *client.Client
	store    *prefs.Store
	resolver *identity.Resolver
	printer  *render.Printer
}

func (o *rootOptions) openClient() (*clientApp, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, err
	}
	logger := logging.NewText(o.stderr, o.logLevel(cfg.LogLevel))

	remote, err := client.New(cfg.ServerURL, &http.Client{Timeout: cfg.HTTPTimeout}, logger)
	if err != nil {
		return nil, err
	}
	backend, err := prefs.OpenFile(filepath.Join(cfg.StateDir, prefsFileName), logger)
	if err != nil {
		return nil, err
	}
	store := prefs.New(backend, logger)

	return &clientApp{
		logger:   logger,
		remote:   remote,
		store:    store,
		resolver: identity.NewResolver(store, logger),
		printer:  render.New(o.stdout),
	}, nil
}

func (a *clientApp) attendee() *portal.Attendee {
	return portal.NewAttendee(a.remote, a.store, a.logger)
}

func (a *clientApp) console() *portal.AdminConsole {
	return portal.NewAdminConsole(a.remote, a.store, a.logger)
}

func (a *clientApp) maps() *portal.Maps {
	return portal.NewMaps(a.remote, campus.Default(), a.logger)
}

func (a *clientApp) loginFlow() *identity.LoginFlow {
	return identity.NewLoginFlow(a.remote, a.resolver, a.logger)
}

// speakerTokenExpiry reads the expiry claim of a stored speaker token for
// display. The server remains the authority on validity.
func speakerTokenExpiry(token string) time.Time {
	if token == "" {
		return time.Time{}
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
