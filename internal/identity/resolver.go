// Package identity answers "who is viewing" for the portal views and runs
// the speaker login flow that establishes it.
package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/conference-portal/internal/client"
	"github.com/example/conference-portal/internal/prefs"
)

// Viewer is the current viewer. A nil Speaker means a guest.
type Viewer struct {
	Speaker *client.Speaker
	Token   string
}

// Guest is the anonymous viewer.
var Guest = Viewer{}

// Authenticated reports whether a speaker is signed in.
func (v Viewer) Authenticated() bool {
	return v.Speaker != nil && v.Speaker.SpeakerID != ""
}

// SpeakerID returns the external id, or "" for guests.
func (v Viewer) SpeakerID() string {
	if !v.Authenticated() {
		return ""
	}
	return v.Speaker.SpeakerID
}

// ScheduleKey is the preference key holding this viewer's saved entries.
func (v Viewer) ScheduleKey() string {
	return prefs.ScheduleKey(v.SpeakerID())
}

type viewerKey struct{}

// WithViewer attaches v to ctx.
func WithViewer(ctx context.Context, v Viewer) context.Context {
	return context.WithValue(ctx, viewerKey{}, v)
}

// FromContext returns the viewer attached to ctx, or Guest.
func FromContext(ctx context.Context) Viewer {
	if ctx == nil {
		return Guest
	}
	v, ok := ctx.Value(viewerKey{}).(Viewer)
	if !ok {
		return Guest
	}
	return v
}

// Resolver is the only reader and writer of the stored identity.
type Resolver struct {
	store  *prefs.Store
	logger *slog.Logger
}

// NewResolver wraps the preference store.
func NewResolver(store *prefs.Store, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, logger: logger}
}

// Current reads the stored identity. Anything missing or unreadable yields
// Guest; unreadable values are logged at debug level only. The speakerAuth
// flag is written last by Establish, so a speaker without it is a partial
// login and also yields Guest.
func (r *Resolver) Current() Viewer {
	var authed bool
	if _, err := r.store.GetJSON(prefs.KeySpeakerAuth, &authed); err != nil {
		r.logger.Debug("ignoring unreadable speaker auth flag", "error", err)
		return Guest
	}
	if !authed {
		return Guest
	}

	var speaker client.Speaker
	ok, err := r.store.GetJSON(prefs.KeySpeaker, &speaker)
	if err != nil {
		r.logger.Debug("ignoring unreadable stored speaker", "error", err)
		return Guest
	}
	if !ok || strings.TrimSpace(speaker.SpeakerID) == "" {
		return Guest
	}

	var token string
	if _, err := r.store.GetJSON(prefs.KeySpeakerToken, &token); err != nil {
		r.logger.Debug("ignoring unreadable speaker token", "error", err)
		token = ""
	}
	return Viewer{Speaker: &speaker, Token: token}
}

// Establish stores the identity returned by a successful login. On failure
// the keys already written are removed again.
func (r *Resolver) Establish(login client.SpeakerLogin) (err error) {
	if strings.TrimSpace(login.Speaker.SpeakerID) == "" {
		return fmt.Errorf("identity: login returned no speaker id")
	}
	defer func() {
		if err == nil {
			return
		}
		if clearErr := r.Clear(); clearErr != nil {
			r.logger.Debug("rolling back partial identity failed", "error", clearErr)
		}
	}()

	if err := r.store.PutJSON(prefs.KeySpeaker, login.Speaker); err != nil {
		return err
	}
	if err := r.store.PutJSON(prefs.KeySpeakerToken, login.Token); err != nil {
		return err
	}
	if err := r.store.PutJSON(prefs.KeySpeakerAuth, true); err != nil {
		return err
	}
	r.logger.Debug("speaker identity stored", "speaker_id", login.Speaker.SpeakerID)
	return nil
}

// Clear forgets the stored identity. Attendance selections are kept.
func (r *Resolver) Clear() error {
	return r.store.Remove(prefs.KeySpeaker, prefs.KeySpeakerAuth, prefs.KeySpeakerToken)
}
