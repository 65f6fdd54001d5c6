package testfixtures

import (
	"io"
	"log/slog"
	"time"

	"github.com/example/conference-portal/internal/application"
	"github.com/example/conference-portal/internal/persistence"
)

// TestSecret signs speaker tokens in tests.
var TestSecret = []byte("test-secret-0123456789abcdef")

// ServiceFactory builds application services with a shared clock, ID
// generator and silent logger.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory returns a factory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(factory)
	}
	return factory
}

// WithClock overrides the clock.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(f *ServiceFactory) { f.Clock = clock }
}

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(f *ServiceFactory) { f.Logger = logger }
}

// NewSpeakerService builds a SpeakerService over speakers.
func (f *ServiceFactory) NewSpeakerService(speakers persistence.SpeakerRepository) *application.SpeakerService {
	return application.NewSpeakerServiceWithLogger(speakers, f.Logger)
}

// NewScheduleService builds a ScheduleService over schedule.
func (f *ServiceFactory) NewScheduleService(schedule persistence.ScheduleRepository, cacheTTL time.Duration) *application.ScheduleService {
	return application.NewScheduleServiceWithLogger(schedule, cacheTTL, f.Logger)
}

// NewSpeakerAuthService builds a SpeakerAuthService signing with TestSecret.
func (f *ServiceFactory) NewSpeakerAuthService(speakers persistence.SpeakerRepository, developerLogin bool) *application.SpeakerAuthService {
	return application.NewSpeakerAuthService(speakers, application.SpeakerAuthOptions{
		Secret:         TestSecret,
		TTL:            72 * time.Hour,
		DeveloperLogin: developerLogin,
		Now:            f.Clock.NowFunc(),
		Logger:         f.Logger,
	})
}

// NewAuthService builds an admin AuthService issuing sequential tokens.
func (f *ServiceFactory) NewAuthService(store persistence.Store, sessionTTL time.Duration) *application.AuthService {
	return application.NewAuthServiceWithLogger(store, store, nil, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), sessionTTL, f.Logger)
}

// NewAdminAccountService builds an AdminAccountService.
func (f *ServiceFactory) NewAdminAccountService(admins persistence.AdminUserRepository) *application.AdminAccountService {
	return application.NewAdminAccountService(admins, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}
