package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/example/conference-portal/internal/client"
)

// State is a step of the login flow.
type State int

const (
	AnonymousNoSession State = iota
	Submitting
	Authenticated
	AuthFailed
)

func (s State) String() string {
	switch s {
	case AnonymousNoSession:
		return "anonymous"
	case Submitting:
		return "submitting"
	case Authenticated:
		return "authenticated"
	case AuthFailed:
		return "auth_failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// User facing login errors.
var (
	ErrMissingFields      = errors.New("Please fill in both fields.")
	ErrInvalidCredentials = errors.New("Invalid Speaker ID or Mobile Number")
	ErrSubmitInProgress   = errors.New("login already in progress")
)

// Authenticator verifies a speaker id and mobile number remotely.
type Authenticator interface {
	LoginSpeaker(ctx context.Context, speakerID, phone string) (client.SpeakerLogin, error)
}

// LoginFlow drives AnonymousNoSession -> Submitting -> Authenticated | AuthFailed.
// AuthFailed immediately falls back to AnonymousNoSession and keeps the
// failure message for display.
type LoginFlow struct {
	auth     Authenticator
	resolver *Resolver
	logger   *slog.Logger

	mu       sync.Mutex
	state    State
	message  string
	observer func(from, to State)
}

// NewLoginFlow wires the flow.
func NewLoginFlow(auth Authenticator, resolver *Resolver, logger *slog.Logger) *LoginFlow {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoginFlow{auth: auth, resolver: resolver, logger: logger}
}

// Observe registers fn to be called on every state transition.
func (f *LoginFlow) Observe(fn func(from, to State)) {
	f.mu.Lock()
	f.observer = fn
	f.mu.Unlock()
}

// State returns the current state.
func (f *LoginFlow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Message returns the last failure message, if any.
func (f *LoginFlow) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

// Submit validates the form, verifies it remotely and stores the identity.
// Nothing is stored on failure.
func (f *LoginFlow) Submit(ctx context.Context, speakerID, mobile string) (Viewer, error) {
	speakerID = strings.TrimSpace(speakerID)
	mobile = strings.TrimSpace(mobile)

	f.mu.Lock()
	if f.state == Submitting {
		f.mu.Unlock()
		return Guest, ErrSubmitInProgress
	}
	if speakerID == "" || mobile == "" {
		f.message = ErrMissingFields.Error()
		f.mu.Unlock()
		return Guest, ErrMissingFields
	}
	f.message = ""
	f.transitionLocked(Submitting)
	f.mu.Unlock()

	login, err := f.auth.LoginSpeaker(ctx, speakerID, mobile)
	if err == nil {
		err = f.resolver.Establish(login)
	}
	if err != nil {
		if errors.Is(err, client.ErrInvalidCredentials) {
			err = ErrInvalidCredentials
		}
		f.logger.DebugContext(ctx, "speaker login failed", "speaker_id", speakerID, "error", err)
		f.fail(err)
		return Guest, err
	}

	f.mu.Lock()
	f.transitionLocked(Authenticated)
	f.mu.Unlock()

	speaker := login.Speaker
	return Viewer{Speaker: &speaker, Token: login.Token}, nil
}

// Reset returns an authenticated flow to AnonymousNoSession, as after logout.
func (f *LoginFlow) Reset() {
	f.mu.Lock()
	f.message = ""
	if f.state != AnonymousNoSession {
		f.transitionLocked(AnonymousNoSession)
	}
	f.mu.Unlock()
}

func (f *LoginFlow) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.message = err.Error()
	f.transitionLocked(AuthFailed)
	f.transitionLocked(AnonymousNoSession)
}

func (f *LoginFlow) transitionLocked(to State) {
	from := f.state
	f.state = to
	if f.observer != nil {
		f.observer(from, to)
	}
}
