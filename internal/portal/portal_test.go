package portal

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/example/conference-portal/internal/campus"
	"github.com/example/conference-portal/internal/client"
	"github.com/example/conference-portal/internal/identity"
	"github.com/example/conference-portal/internal/logging"
	"github.com/example/conference-portal/internal/prefs"
	"github.com/example/conference-portal/internal/reconcile"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type remoteStub struct {
	mu sync.Mutex

	entries     []client.ScheduleEntry
	scheduleErr error
	sessions    []client.PersonalSession
	sessionsErr error
	clashes     []client.VenueClash
	saveErr     error
	maps        campus.Catalog
	mapErr      error

	savedSpeakers []client.Speaker
	deleted       []int64
	loggedOut     []string
	tokens        []string
}

func (s *remoteStub) record(token string) {
	s.mu.Lock()
	s.tokens = append(s.tokens, token)
	s.mu.Unlock()
}

func (s *remoteStub) Schedule(context.Context) ([]client.ScheduleEntry, error) {
	return s.entries, s.scheduleErr
}

func (s *remoteStub) PersonalSessions(_ context.Context, token, _ string) ([]client.PersonalSession, error) {
	s.record(token)
	return s.sessions, s.sessionsErr
}

func (s *remoteStub) AdminLogin(_ context.Context, email, password string) (client.AdminSession, error) {
	if password != "secret" {
		return client.AdminSession{}, &client.APIError{Status: 401, Code: "AUTH_INVALID_CREDENTIALS", Message: "invalid credentials"}
	}
	return client.AdminSession{Token: "admin-token", Admin: client.AdminAccount{ID: "a1", Email: email}}, nil
}

func (s *remoteStub) AdminSession(_ context.Context, token string) (client.AdminSession, error) {
	if token != "admin-token" {
		return client.AdminSession{}, &client.APIError{Status: 401, Code: "AUTH_UNAUTHORIZED"}
	}
	return client.AdminSession{Token: token}, nil
}

func (s *remoteStub) AdminLogout(_ context.Context, token string) error {
	s.loggedOut = append(s.loggedOut, token)
	return nil
}

func (s *remoteStub) Speakers(_ context.Context, token string) ([]client.Speaker, error) {
	s.record(token)
	return s.savedSpeakers, nil
}

func (s *remoteStub) SaveSpeaker(_ context.Context, token string, speaker client.Speaker) (client.Speaker, error) {
	s.record(token)
	if s.saveErr != nil {
		return client.Speaker{}, s.saveErr
	}
	s.savedSpeakers = append(s.savedSpeakers, speaker)
	if speaker.ID == 0 {
		speaker.ID = int64(len(s.savedSpeakers))
	}
	return speaker, nil
}

func (s *remoteStub) DeleteSpeaker(_ context.Context, token string, id int64) error {
	s.record(token)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *remoteStub) SaveScheduleEntry(_ context.Context, token string, entry client.ScheduleEntry) (client.ScheduleEntry, []client.VenueClash, error) {
	s.record(token)
	if entry.ID == 0 {
		entry.ID = 99
	}
	return entry, s.clashes, nil
}

func (s *remoteStub) DeleteScheduleEntry(_ context.Context, token string, id int64) error {
	s.record(token)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *remoteStub) Map(_ context.Context, name string) (campus.Map, error) {
	if s.mapErr != nil {
		return campus.Map{}, s.mapErr
	}
	return s.maps.Lookup(name)
}

func newStore() (*prefs.Store, *prefs.MemoryBackend) {
	backend := prefs.NewMemoryBackend()
	return prefs.New(backend, logging.Discard()), backend
}

func speakerViewer(id, token string) identity.Viewer {
	return identity.Viewer{Speaker: &client.Speaker{ID: 1, SpeakerID: id, Name: "Dr. Rao"}, Token: token}
}

func sampleEntries() []client.ScheduleEntry {
	return []client.ScheduleEntry{
		{ID: 1, Day: "Day 1", Time: "09:00", Type: client.EntryTypeKeynote, Title: "Opening"},
		{ID: 2, Day: "Day 1", Time: "10:00", Type: client.EntryTypeSession, Title: "Track A"},
		{ID: 3, Day: "", Time: "19:00", Type: client.EntryTypeEvent, Title: "Dinner"},
	}
}

func groupTitles(groups []reconcile.DayGroup[ScheduleItem]) map[string][]string {
	out := make(map[string][]string, len(groups))
	for _, g := range groups {
		for _, item := range g.Entries {
			out[g.Day] = append(out[g.Day], item.Entry.Title)
		}
	}
	return out
}

func TestDashboardRequiresIdentity(t *testing.T) {
	t.Parallel()

	store, _ := newStore()
	attendee := NewAttendee(&remoteStub{}, store, logging.Discard())
	if _, err := attendee.Dashboard(context.Background(), identity.Guest); !errors.Is(err, ErrIdentityRequired) {
		t.Fatalf("expected ErrIdentityRequired, got %v", err)
	}
}

func TestDashboardComposesRegions(t *testing.T) {
	t.Parallel()

	store, _ := newStore()
	if err := store.Save("schedule_NM-001", reconcile.Selection{2}); err != nil {
		t.Fatalf("seed selection: %v", err)
	}
	remote := &remoteStub{
		entries:  sampleEntries(),
		sessions: []client.PersonalSession{{Title: "Graph Theory", Time: "11:00", Venue: "Hall 1"}},
	}
	attendee := NewAttendee(remote, store, logging.Discard())

	view, err := attendee.Dashboard(context.Background(), speakerViewer("NM-001", "tok"))
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if len(view.Notices) != 0 {
		t.Fatalf("unexpected notices %+v", view.Notices)
	}
	if len(view.PersonalSessions) != 1 || view.PersonalSessions[0].Title != "Graph Theory" {
		t.Fatalf("unexpected personal sessions %+v", view.PersonalSessions)
	}
	want := map[string][]string{"Day 1": {"Opening", "Track A"}, reconcile.OtherEventsLabel: {"Dinner"}}
	if diff := cmp.Diff(want, groupTitles(view.Schedule)); diff != "" {
		t.Fatalf("grouping mismatch (-want +got):\n%s", diff)
	}
	if !view.Schedule[0].Entries[1].Saved || view.Schedule[0].Entries[0].Saved {
		t.Fatalf("saved flags not applied: %+v", view.Schedule[0].Entries)
	}
	if diff := cmp.Diff([]string{"tok"}, remote.tokens); diff != "" {
		t.Fatalf("token mismatch (-want +got):\n%s", diff)
	}
}

func TestDashboardFailedFetchesBecomeNotices(t *testing.T) {
	t.Parallel()

	store, _ := newStore()
	remote := &remoteStub{scheduleErr: errors.New("boom"), sessionsErr: errors.New("boom")}
	attendee := NewAttendee(remote, store, logging.Discard())

	view, err := attendee.Dashboard(context.Background(), speakerViewer("NM-001", "tok"))
	if err != nil {
		t.Fatalf("Dashboard must not fail on fetch errors: %v", err)
	}
	if view.Schedule != nil || view.PersonalSessions != nil {
		t.Fatalf("expected empty regions, got %+v", view)
	}
	want := []Notice{failure(msgScheduleLoadFailed), failure(msgSessionsLoadFailed)}
	if diff := cmp.Diff(want, view.Notices); diff != "" {
		t.Fatalf("notices mismatch (-want +got):\n%s", diff)
	}
}

func TestDashboardWithoutTokenUsesStoredSessions(t *testing.T) {
	t.Parallel()

	store, _ := newStore()
	remote := &remoteStub{entries: sampleEntries()}
	viewer := speakerViewer("test", "")
	viewer.Speaker.PersonalSessions = []client.PersonalSession{{Title: "Stored"}}

	view, err := NewAttendee(remote, store, logging.Discard()).Dashboard(context.Background(), viewer)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if len(view.PersonalSessions) != 1 || len(remote.tokens) != 0 {
		t.Fatalf("expected stored sessions without a remote call, got %+v / %v", view.PersonalSessions, remote.tokens)
	}
}

func TestScheduleUsesViewerBucket(t *testing.T) {
	t.Parallel()

	store, _ := newStore()
	attendee := NewAttendee(&remoteStub{entries: sampleEntries()}, store, logging.Discard())
	ctx := context.Background()

	saved, notice, err := attendee.Toggle(ctx, identity.Guest, 3)
	if err != nil || !saved || notice != success(msgSessionSaved) {
		t.Fatalf("Toggle = %v %+v %v", saved, notice, err)
	}

	guestView := attendee.Schedule(ctx, identity.Guest)
	other, _ := reconcile.Lookup(guestView.Schedule, reconcile.OtherEventsLabel)
	if len(other) != 1 || !other[0].Saved {
		t.Fatalf("expected guest selection to be applied, got %+v", other)
	}

	speakerView := attendee.Schedule(ctx, speakerViewer("NM-001", ""))
	other, _ = reconcile.Lookup(speakerView.Schedule, reconcile.OtherEventsLabel)
	if other[0].Saved {
		t.Fatalf("speaker view must not see the guest selection")
	}

	saved, notice, err = attendee.Toggle(ctx, identity.Guest, 3)
	if err != nil || saved || notice != info(msgSessionRemoved) {
		t.Fatalf("second Toggle = %v %+v %v", saved, notice, err)
	}
}

func TestScheduleFetchFailure(t *testing.T) {
	t.Parallel()

	store, _ := newStore()
	view := NewAttendee(&remoteStub{scheduleErr: errors.New("down")}, store, logging.Discard()).Schedule(context.Background(), identity.Guest)
	if view.Schedule != nil {
		t.Fatalf("expected empty schedule")
	}
	if diff := cmp.Diff([]Notice{failure(msgScheduleLoadFailed)}, view.Notices); diff != "" {
		t.Fatalf("notices mismatch (-want +got):\n%s", diff)
	}
}

func TestAdminConsoleSpeakerLifecycle(t *testing.T) {
	t.Parallel()

	store, backend := newStore()
	remote := &remoteStub{}
	console := NewAdminConsole(remote, store, logging.Discard())
	ctx := context.Background()

	if _, _, err := console.SaveSpeaker(ctx, SpeakerForm{SpeakerID: "NM-001", Name: "Dr. Rao"}); !errors.Is(err, ErrAdminRequired) {
		t.Fatalf("expected ErrAdminRequired before login, got %v", err)
	}

	if _, notice, err := console.Login(ctx, "admin@example.com", "wrong"); err == nil || notice.Level != LevelError {
		t.Fatalf("expected failed login, got %+v %v", notice, err)
	}
	if _, notice, err := console.Login(ctx, " admin@example.com ", "secret"); err != nil || notice != success(msgLoggedIn) {
		t.Fatalf("Login = %+v %v", notice, err)
	}
	if _, ok, _ := backend.Get(prefs.KeyAdminSession); !ok {
		t.Fatalf("expected admin session to be stored")
	}
	if _, err := console.Session(ctx); err != nil {
		t.Fatalf("Session failed: %v", err)
	}

	form := NewSpeakerForm()
	form.SpeakerID, form.Name = " NM-001 ", "Dr. Rao"
	form.Phone = ""
	form.Sessions = []client.PersonalSession{{Title: "Talk", Time: "10:00", Venue: "Hall"}, {Title: "  "}}
	saved, notice, err := console.SaveSpeaker(ctx, form)
	if err != nil || notice != success(msgUserAdded) {
		t.Fatalf("SaveSpeaker = %+v %v", notice, err)
	}
	want := client.Speaker{
		SpeakerID:        "NM-001",
		Name:             "Dr. Rao",
		Phone:            DefaultSpeakerPhone,
		PersonalSessions: []client.PersonalSession{{Title: "Talk", Time: "10:00", Venue: "Hall"}},
	}
	if diff := cmp.Diff(want, remote.savedSpeakers[0]); diff != "" {
		t.Fatalf("submitted speaker mismatch (-want +got):\n%s", diff)
	}

	edit := EditSpeakerForm(saved)
	edit.Name = "Prof. Rao"
	if _, notice, err := console.SaveSpeaker(ctx, edit); err != nil || notice != success(msgUserUpdated) {
		t.Fatalf("update = %+v %v", notice, err)
	}

	if notice, err := console.DeleteSpeaker(ctx, saved.ID); err != nil || notice != success(msgUserDeleted) {
		t.Fatalf("DeleteSpeaker = %+v %v", notice, err)
	}

	if notice, err := console.Logout(ctx); err != nil || notice != info(msgLoggedOut) {
		t.Fatalf("Logout = %+v %v", notice, err)
	}
	if _, ok, _ := backend.Get(prefs.KeyAdminSession); ok {
		t.Fatalf("expected admin session to be removed")
	}
	if diff := cmp.Diff([]string{"admin-token"}, remote.loggedOut); diff != "" {
		t.Fatalf("logout mismatch (-want +got):\n%s", diff)
	}
}

func TestAdminConsoleValidatesBeforeRemoteCall(t *testing.T) {
	t.Parallel()

	store, _ := newStore()
	remote := &remoteStub{}
	console := NewAdminConsole(remote, store, logging.Discard())
	if _, _, err := console.Login(context.Background(), "a@example.com", "secret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	remote.tokens = nil

	for _, form := range []SpeakerForm{{Name: "x"}, {SpeakerID: "x"}, {SpeakerID: " ", Name: " "}} {
		_, notice, err := console.SaveSpeaker(context.Background(), form)
		if !errors.Is(err, ErrSpeakerIncomplete) || notice != failure(msgSpeakerRequired) {
			t.Fatalf("SaveSpeaker(%+v) = %+v %v", form, notice, err)
		}
	}
	if _, _, err := console.SaveEntry(context.Background(), client.ScheduleEntry{}); !errors.Is(err, ErrEntryIncomplete) {
		t.Fatalf("expected ErrEntryIncomplete, got %v", err)
	}
	if len(remote.tokens) != 0 {
		t.Fatalf("expected no remote calls, got %d", len(remote.tokens))
	}
}

func TestAdminConsoleForgetsRejectedSession(t *testing.T) {
	t.Parallel()

	store, backend := newStore()
	if err := store.PutJSON(prefs.KeyAdminSession, client.AdminSession{Token: "stale"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	console := NewAdminConsole(&remoteStub{}, store, logging.Discard())
	if _, err := console.Session(context.Background()); !errors.Is(err, ErrAdminRequired) {
		t.Fatalf("expected ErrAdminRequired, got %v", err)
	}
	if _, ok, _ := backend.Get(prefs.KeyAdminSession); ok {
		t.Fatalf("expected stale session to be removed")
	}
}

func TestAdminConsoleScheduleEntries(t *testing.T) {
	t.Parallel()

	store, _ := newStore()
	remote := &remoteStub{clashes: []client.VenueClash{{EntryID: 4, Day: "Day 1", Time: "10:00", Venue: "Hall 1"}}}
	console := NewAdminConsole(remote, store, logging.Discard())
	ctx := context.Background()
	if _, _, err := console.Login(ctx, "a@example.com", "secret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	entry := NewEntryForm()
	if entry.Day != DefaultEntryDay || entry.Type != client.EntryTypeSession {
		t.Fatalf("unexpected defaults %+v", entry)
	}
	entry.Title = "Panel"
	saved, notices, err := console.SaveEntry(ctx, entry)
	if err != nil {
		t.Fatalf("SaveEntry failed: %v", err)
	}
	if len(notices) != 2 || notices[0] != success(msgEventAdded) || notices[1].Level != LevelWarning {
		t.Fatalf("unexpected notices %+v", notices)
	}

	_, notices, err = console.SaveEntry(ctx, saved)
	if err != nil || notices[0] != success(msgEventUpdated) {
		t.Fatalf("update = %+v %v", notices, err)
	}

	if notice, err := console.DeleteEntry(ctx, saved.ID); err != nil || notice != success(msgEventDeleted) {
		t.Fatalf("DeleteEntry = %+v %v", notice, err)
	}
}

func TestMapsOpen(t *testing.T) {
	t.Parallel()

	catalog := campus.Default()
	ctx := context.Background()

	t.Run("focus zooms in", func(t *testing.T) {
		t.Parallel()
		maps := NewMaps(&remoteStub{maps: catalog}, catalog, logging.Discard())
		view, err := maps.Open(ctx, CampusMapName, "library")
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if view.View.Zoom != view.Map.FocusZoom || view.Focused == "" {
			t.Fatalf("expected focused view, got %+v", view.View)
		}
	})

	t.Run("fallback to bundled catalog", func(t *testing.T) {
		t.Parallel()
		maps := NewMaps(&remoteStub{mapErr: errors.New("offline")}, catalog, logging.Discard())
		view, err := maps.Open(ctx, AcadsMapName, "")
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if view.View != view.Map.Initial() || len(view.Notices) != 1 {
			t.Fatalf("unexpected fallback view %+v", view)
		}
	})

	t.Run("unknown location", func(t *testing.T) {
		t.Parallel()
		maps := NewMaps(&remoteStub{maps: catalog}, catalog, logging.Discard())
		view, err := maps.Open(ctx, CampusMapName, "Moon Base")
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if view.Focused != "" || len(view.Notices) != 1 || view.Notices[0].Level != LevelWarning {
			t.Fatalf("unexpected view %+v", view)
		}
	})

	t.Run("unknown map", func(t *testing.T) {
		t.Parallel()
		maps := NewMaps(&remoteStub{maps: catalog}, catalog, logging.Discard())
		if _, err := maps.Open(ctx, "moon", ""); !errors.Is(err, campus.ErrUnknownMap) {
			t.Fatalf("expected ErrUnknownMap, got %v", err)
		}
	})
}

func TestHomeSwapsLoginForDashboard(t *testing.T) {
	t.Parallel()

	guest := Home(identity.Viewer{})
	if guest.Primary.Target != "/login" || guest.Greeting != "" {
		t.Fatalf("guest home = %+v", guest)
	}
	if len(guest.Navigate) != 4 {
		t.Fatalf("expected 4 navigation links, got %d", len(guest.Navigate))
	}

	speaker := Home(identity.Viewer{Speaker: &client.Speaker{SpeakerID: "NM-001", Name: "Dr. Rao"}})
	want := Link{Label: "My Dashboard", Target: "/dashboard"}
	if diff := cmp.Diff(want, speaker.Primary); diff != "" {
		t.Fatalf("primary link mismatch (-want +got):\n%s", diff)
	}
	if speaker.Greeting != "Signed in as Dr. Rao" {
		t.Fatalf("greeting = %q", speaker.Greeting)
	}
}
