package http

import (
	"net/http"
	"strconv"
	"strings"
)

type RouterConfig struct {
	Health      *HealthHandler
	SpeakerAuth *SpeakerAuthHandler
	AdminAuth   *AuthHandler
	Speakers    *SpeakerHandler
	Schedule    *ScheduleHandler
	Maps        *MapHandler
	// RequireAdmin guards administrator routes.
	RequireAdmin func(http.Handler) http.Handler
	// RequirePrincipal guards routes open to speakers and administrators.
	RequirePrincipal func(http.Handler) http.Handler
	Middleware       []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	admin := guard(cfg.RequireAdmin)
	principal := guard(cfg.RequirePrincipal)

	if cfg.Health != nil {
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Health.Check(w, r)
		})
	}

	if cfg.SpeakerAuth != nil {
		mux.HandleFunc("/api/speaker-sessions", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.SpeakerAuth.CreateSession(w, r)
		})
	}

	if cfg.AdminAuth != nil {
		mux.HandleFunc("/api/admin/sessions", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.AdminAuth.CreateSession(w, r)
		})
		mux.Handle("/api/admin/sessions/current", admin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.AdminAuth.CurrentSession(w, r)
			case http.MethodDelete:
				cfg.AdminAuth.DeleteCurrentSession(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodDelete)
			}
		})))
		mux.Handle("/api/admin/sessions/current/refresh", admin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.AdminAuth.RefreshSession(w, r)
		})))
	}

	if cfg.Schedule != nil {
		adminWrites := admin(http.HandlerFunc(cfg.Schedule.Create))
		mux.HandleFunc("/api/schedule", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Schedule.List(w, r)
			case http.MethodPost:
				adminWrites.ServeHTTP(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.Handle("/api/schedule/", admin(withResourceID("/api/schedule/", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPut:
				cfg.Schedule.Update(w, r)
			case http.MethodDelete:
				cfg.Schedule.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodPut, http.MethodDelete)
			}
		})))
	}

	if cfg.Speakers != nil {
		mux.Handle("/api/speakers", admin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Speakers.List(w, r)
			case http.MethodPost:
				cfg.Speakers.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})))
		mux.Handle("/api/speakers/", admin(withResourceID("/api/speakers/", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPut:
				cfg.Speakers.Update(w, r)
			case http.MethodDelete:
				cfg.Speakers.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodPut, http.MethodDelete)
			}
		})))
		mux.Handle("/api/personal-sessions", principal(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Speakers.PersonalSessions(w, r)
		})))
	}

	if cfg.Maps != nil {
		mux.HandleFunc("/api/maps", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Maps.List(w, r)
		})
		mux.HandleFunc("/api/maps/", func(w http.ResponseWriter, r *http.Request) {
			name := strings.TrimPrefix(r.URL.Path, "/api/maps/")
			if name == "" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Maps.Get(w, r, name)
		})
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	return handler
}

func guard(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return mw
}

// withResourceID parses the numeric path segment after prefix into the
// request context. Malformed identifiers are rejected with 400.
func withResourceID(prefix string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
		if raw == "" {
			http.NotFound(w, r)
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			newResponder(nil).writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
			return
		}
		next(w, r.WithContext(ContextWithResourceID(r.Context(), id)))
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
