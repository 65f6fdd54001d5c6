package testfixtures

import (
	"context"
	"testing"
	"time"
)

func TestHarnessAndFactoryRoundTrip(t *testing.T) {
	harness := NewSQLiteHarness(t)
	factory := NewServiceFactory()
	ctx := context.Background()

	speaker := NewSpeakerFixture(WithPersonalSessions("Keynote", "Panel"))
	harness.SeedSpeaker(t, speaker)
	admin := NewAdminFixture()
	harness.SeedAdmin(t, admin)

	login, err := factory.NewSpeakerAuthService(harness.Store, false).Login(ctx, speaker.Login())
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if len(login.Speaker.PersonalSessions) != 2 {
		t.Fatalf("expected seeded sessions, got %+v", login.Speaker.PersonalSessions)
	}
	if !login.ExpiresAt.Equal(ReferenceTime().Add(72 * time.Hour)) {
		t.Fatalf("expected expiry from fixture clock, got %v", login.ExpiresAt)
	}

	sessions, err := factory.NewSpeakerService(harness.Store).ListPersonalSessions(ctx, admin.Principal(), speaker.SpeakerID)
	if err != nil || len(sessions) != 2 {
		t.Fatalf("ListPersonalSessions = %d, %v", len(sessions), err)
	}
}
