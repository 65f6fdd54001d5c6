package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/example/conference-portal/internal/campus"
	"github.com/example/conference-portal/internal/testfixtures"
)

type testEnv struct {
	harness *testfixtures.SQLiteHarness
	factory *testfixtures.ServiceFactory
	router  http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	harness := testfixtures.NewSQLiteHarness(t)
	factory := testfixtures.NewServiceFactory()
	logger := factory.Logger

	auth := factory.NewAuthService(harness.Store, time.Hour)
	speakerAuth := factory.NewSpeakerAuthService(harness.Store, true)

	router := NewRouter(RouterConfig{
		Health:           NewHealthHandler(harness.Store, logger),
		SpeakerAuth:      NewSpeakerAuthHandler(speakerAuth, logger),
		AdminAuth:        NewAuthHandler(auth, logger),
		Speakers:         NewSpeakerHandler(factory.NewSpeakerService(harness.Store), logger),
		Schedule:         NewScheduleHandler(factory.NewScheduleService(harness.Store, time.Minute), logger),
		Maps:             NewMapHandler(campus.NewSource(campus.Default()), logger),
		RequireAdmin:     RequireAdmin(auth, logger),
		RequirePrincipal: RequirePrincipal(speakerAuth, auth, logger),
		Middleware:       []func(http.Handler) http.Handler{RequestLogger(logger)},
	})
	return &testEnv{harness: harness, factory: factory, router: router}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var payload *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		payload = bytes.NewReader(data)
	} else {
		payload = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, payload)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()

	admin := testfixtures.NewAdminFixture()
	e.harness.SeedAdmin(t, admin)
	rec := e.do(t, http.MethodPost, "/api/admin/sessions", map[string]string{"email": admin.Email, "password": admin.Password}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin login status = %d body=%s", rec.Code, rec.Body.String())
	}
	var session adminSessionDTO
	decode(t, rec, &session)
	return session.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) errorResponse {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body=%s)", rec.Code, status, rec.Body.String())
	}
	var body errorResponse
	decode(t, rec, &body)
	if body.ErrorCode != code {
		t.Fatalf("error_code = %q, want %q", body.ErrorCode, code)
	}
	return body
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthz", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/healthz", nil, ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /healthz status = %d", rec.Code)
	}
}

func TestSpeakerHandlers_LoginAndPersonalSessions(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	speaker := testfixtures.NewSpeakerFixture(testfixtures.WithPersonalSessions("Keynote prep", "Panel"))
	other := testfixtures.NewSpeakerFixture()
	env.harness.SeedSpeaker(t, speaker)
	env.harness.SeedSpeaker(t, other)

	t.Run("blank fields fail validation", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/speaker-sessions", map[string]string{"speaker_id": speaker.SpeakerID}, "")
		body := expectError(t, rec, http.StatusUnprocessableEntity, codeValidation)
		if body.Message != "Please fill in both fields." {
			t.Fatalf("message = %q", body.Message)
		}
	})

	t.Run("wrong phone is rejected", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/speaker-sessions", map[string]string{"speaker_id": speaker.SpeakerID, "phone": "0"}, "")
		body := expectError(t, rec, http.StatusUnauthorized, codeInvalidCredentials)
		if body.Message != "Invalid Speaker ID or Mobile Number" {
			t.Fatalf("message = %q", body.Message)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/speaker-sessions", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		expectError(t, rec, http.StatusBadRequest, codeBadRequest)
	})

	rec := env.do(t, http.MethodPost, "/api/speaker-sessions", map[string]string{"speaker_id": speaker.SpeakerID, "phone": speaker.Phone}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("login status = %d body=%s", rec.Code, rec.Body.String())
	}
	var login speakerLoginResponse
	decode(t, rec, &login)
	if login.Speaker.SpeakerID != speaker.SpeakerID || login.Token == "" {
		t.Fatalf("unexpected login response: %+v", login)
	}

	t.Run("own sessions", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/personal-sessions?speaker_id="+speaker.SpeakerID, nil, login.Token)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
		}
		var body struct {
			Sessions []personalSessionDTO `json:"sessions"`
		}
		decode(t, rec, &body)
		var titles []string
		for _, s := range body.Sessions {
			titles = append(titles, s.Title)
		}
		if diff := cmp.Diff([]string{"Keynote prep", "Panel"}, titles); diff != "" {
			t.Fatalf("titles mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("another speaker's sessions are refused", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/personal-sessions?speaker_id="+other.SpeakerID, nil, login.Token)
		expectError(t, rec, http.StatusUnauthorized, codeUnauthorized)
	})

	t.Run("admin may read any speaker", func(t *testing.T) {
		token := env.adminToken(t)
		rec := env.do(t, http.MethodGet, "/api/personal-sessions?speaker_id="+other.SpeakerID, nil, token)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
		}
	})

	t.Run("token required", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/personal-sessions?speaker_id="+speaker.SpeakerID, nil, "")
		expectError(t, rec, http.StatusUnauthorized, codeUnauthorized)
	})
}

func TestAuthHandler_AdminSessionLifecycle(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	admin := testfixtures.NewAdminFixture()
	env.harness.SeedAdmin(t, admin)

	rec := env.do(t, http.MethodPost, "/api/admin/sessions", map[string]string{"email": admin.Email, "password": "nope"}, "")
	body := expectError(t, rec, http.StatusUnauthorized, codeInvalidCredentials)
	if body.Message != "Invalid email or password" {
		t.Fatalf("message = %q", body.Message)
	}

	rec = env.do(t, http.MethodPost, "/api/admin/sessions", map[string]string{"email": admin.Email, "password": admin.Password}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("login status = %d body=%s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Session-Token") == "" {
		t.Fatal("expected X-Session-Token header")
	}
	var session adminSessionDTO
	decode(t, rec, &session)

	rec = env.do(t, http.MethodGet, "/api/admin/sessions/current", nil, session.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("current status = %d body=%s", rec.Code, rec.Body.String())
	}
	var current adminSessionDTO
	decode(t, rec, &current)
	if current.Admin.Email != admin.Email || current.Token != session.Token {
		t.Fatalf("unexpected current session: %+v", current)
	}

	rec = env.do(t, http.MethodPost, "/api/admin/sessions/current/refresh", nil, session.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d body=%s", rec.Code, rec.Body.String())
	}
	var refreshed adminSessionDTO
	decode(t, rec, &refreshed)
	if refreshed.Token == session.Token {
		t.Fatal("expected refresh to rotate the token")
	}
	expectError(t, env.do(t, http.MethodGet, "/api/admin/sessions/current", nil, session.Token), http.StatusUnauthorized, codeUnauthorized)

	if rec := env.do(t, http.MethodDelete, "/api/admin/sessions/current", nil, refreshed.Token); rec.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d body=%s", rec.Code, rec.Body.String())
	}
	expectError(t, env.do(t, http.MethodGet, "/api/admin/sessions/current", nil, refreshed.Token), http.StatusUnauthorized, codeSessionExpired)
}

func TestScheduleHandlers(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	token := env.adminToken(t)
	entry := map[string]string{"day": "Day 1 (Feb 7)", "time": "09:00", "title": "Opening", "venue": "Main Hall"}

	t.Run("writes require an administrator", func(t *testing.T) {
		expectError(t, env.do(t, http.MethodPost, "/api/schedule", entry, ""), http.StatusUnauthorized, codeUnauthorized)
		expectError(t, env.do(t, http.MethodDelete, "/api/schedule/1", nil, "bogus"), http.StatusUnauthorized, codeUnauthorized)
	})

	rec := env.do(t, http.MethodPost, "/api/schedule", entry, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", rec.Code, rec.Body.String())
	}
	var first entryResponse
	decode(t, rec, &first)
	if first.Entry.Type != "Session" || len(first.Warnings) != 0 {
		t.Fatalf("unexpected first entry: %+v", first)
	}

	clash := map[string]string{"day": "Day 1 (Feb 7)", "time": "09:00", "title": "Workshop", "venue": "main hall", "type": "Event"}
	rec = env.do(t, http.MethodPost, "/api/schedule", clash, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("clash create status = %d body=%s", rec.Code, rec.Body.String())
	}
	var second entryResponse
	decode(t, rec, &second)
	if len(second.Warnings) != 1 || second.Warnings[0].EntryID != first.Entry.ID {
		t.Fatalf("expected one clash warning against %d, got %+v", first.Entry.ID, second.Warnings)
	}

	t.Run("invalid type is a validation error", func(t *testing.T) {
		body := expectError(t, env.do(t, http.MethodPost, "/api/schedule", map[string]string{"title": "X", "type": "Party"}, token), http.StatusUnprocessableEntity, codeValidation)
		if _, ok := body.Errors["type"]; !ok {
			t.Fatalf("expected type field error, got %+v", body.Errors)
		}
	})

	t.Run("grouped listing is public", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/schedule?group=day", nil, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var body groupedScheduleResponse
		decode(t, rec, &body)
		if len(body.Days) != 1 || body.Days[0].Day != "Day 1 (Feb 7)" || len(body.Days[0].Entries) != 2 {
			t.Fatalf("unexpected groups: %+v", body.Days)
		}
		expectError(t, env.do(t, http.MethodGet, "/api/schedule?group=week", nil, ""), http.StatusBadRequest, codeBadRequest)
	})

	t.Run("update and delete", func(t *testing.T) {
		expectError(t, env.do(t, http.MethodPut, "/api/schedule/abc", entry, token), http.StatusBadRequest, codeBadRequest)
		expectError(t, env.do(t, http.MethodPut, "/api/schedule/999", entry, token), http.StatusNotFound, codeNotFound)

		updated := map[string]string{"day": "", "time": "10:00", "title": "Opening (moved)", "venue": "Auditorium", "session_chair": "Dr. Rao"}
		rec := env.do(t, http.MethodPut, "/api/schedule/"+itoa(first.Entry.ID), updated, token)
		if rec.Code != http.StatusOK {
			t.Fatalf("update status = %d body=%s", rec.Code, rec.Body.String())
		}
		var body entryResponse
		decode(t, rec, &body)
		if body.Entry.SessionChair == nil || *body.Entry.SessionChair != "Dr. Rao" || body.Entry.Day != "" {
			t.Fatalf("unexpected updated entry: %+v", body.Entry)
		}

		if rec := env.do(t, http.MethodDelete, "/api/schedule/"+itoa(second.Entry.ID), nil, token); rec.Code != http.StatusNoContent {
			t.Fatalf("delete status = %d", rec.Code)
		}

		rec = env.do(t, http.MethodGet, "/api/schedule", nil, "")
		var list scheduleListResponse
		decode(t, rec, &list)
		if len(list.Entries) != 1 || list.Entries[0].Title != "Opening (moved)" {
			t.Fatalf("unexpected schedule after writes: %+v", list.Entries)
		}
	})
}

func TestSpeakerHandlers_AdminManagement(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	token := env.adminToken(t)

	expectError(t, env.do(t, http.MethodGet, "/api/speakers", nil, ""), http.StatusUnauthorized, codeUnauthorized)

	create := map[string]any{
		"speaker_id": "SPK900",
		"name":       "Dr. Iyer",
		"personal_sessions": []map[string]string{
			{"title": "Quantum talk", "time": "11:00", "venue": "Hall B"},
			{"title": "", "time": "12:00", "venue": "Hall C"},
		},
	}
	rec := env.do(t, http.MethodPost, "/api/speakers", create, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", rec.Code, rec.Body.String())
	}
	var created speakerDTO
	decode(t, rec, &created)
	if created.Phone != "1234567890" || len(created.PersonalSessions) != 1 {
		t.Fatalf("unexpected created speaker: %+v", created)
	}

	expectError(t, env.do(t, http.MethodPost, "/api/speakers", create, token), http.StatusConflict, codeConflict)

	body := expectError(t, env.do(t, http.MethodPost, "/api/speakers", map[string]string{"speaker_id": "SPK901"}, token), http.StatusUnprocessableEntity, codeValidation)
	if _, ok := body.Errors["name"]; !ok {
		t.Fatalf("expected name field error, got %+v", body.Errors)
	}

	update := map[string]any{"speaker_id": "SPK900", "name": "Dr. A. Iyer", "phone": "5550001", "personal_sessions": []map[string]string{}}
	rec = env.do(t, http.MethodPut, "/api/speakers/"+itoa(created.ID), update, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d body=%s", rec.Code, rec.Body.String())
	}
	var updated speakerDTO
	decode(t, rec, &updated)
	if updated.Name != "Dr. A. Iyer" || len(updated.PersonalSessions) != 0 {
		t.Fatalf("unexpected updated speaker: %+v", updated)
	}

	rec = env.do(t, http.MethodGet, "/api/speakers", nil, token)
	var list struct {
		Speakers []speakerDTO `json:"speakers"`
	}
	decode(t, rec, &list)
	if len(list.Speakers) != 1 {
		t.Fatalf("expected one speaker, got %d", len(list.Speakers))
	}

	if rec := env.do(t, http.MethodDelete, "/api/speakers/"+itoa(created.ID), nil, token); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d body=%s", rec.Code, rec.Body.String())
	}
	expectError(t, env.do(t, http.MethodDelete, "/api/speakers/"+itoa(created.ID), nil, token), http.StatusNotFound, codeNotFound)
}

func TestMapHandlers(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/maps", nil, "")
	var list struct {
		Maps []campus.Summary `json:"maps"`
	}
	decode(t, rec, &list)
	var names []string
	for _, m := range list.Maps {
		names = append(names, m.Name)
	}
	if diff := cmp.Diff([]string{"campus", "acads"}, names); diff != "" {
		t.Fatalf("map names mismatch (-want +got):\n%s", diff)
	}

	rec = env.do(t, http.MethodGet, "/api/maps/campus", nil, "")
	var m campus.Map
	decode(t, rec, &m)
	if m.Zoom != 16 || len(m.Categories) != 3 {
		t.Fatalf("unexpected campus map: %+v", m)
	}

	expectError(t, env.do(t, http.MethodGet, "/api/maps/moon", nil, ""), http.StatusNotFound, codeNotFound)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
