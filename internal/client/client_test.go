package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/conference-portal/internal/logging"
	"github.com/google/go-cmp/cmp"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := New(server.URL, server.Client(), logging.Discard())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestNewRejectsRelativeURL(t *testing.T) {
	t.Parallel()

	if _, err := New("localhost:8080", nil, nil); err == nil {
		t.Fatalf("expected error for URL without scheme")
	}
}

func TestLoginSpeaker(t *testing.T) {
	t.Parallel()

	t.Run("decodes speaker and token", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/api/speaker-sessions" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode body: %v", err)
			}
			if body["speaker_id"] != "NM-001" || body["phone"] != "9999999999" {
				t.Errorf("unexpected body %v", body)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"speaker":{"id":3,"speaker_id":"NM-001","name":"Dr. Rao","phone":"9999999999","personal_sessions":[{"id":9,"title":"Edge AI","time":"10:00","venue":"LT-1"}]},"token":"tok","expires_at":"2026-02-07T10:00:00Z"}`))
		})

		login, err := c.LoginSpeaker(context.Background(), "NM-001", "9999999999")
		if err != nil {
			t.Fatalf("LoginSpeaker failed: %v", err)
		}
		want := Speaker{
			ID: 3, SpeakerID: "NM-001", Name: "Dr. Rao", Phone: "9999999999",
			PersonalSessions: []PersonalSession{{ID: 9, Title: "Edge AI", Time: "10:00", Venue: "LT-1"}},
		}
		if diff := cmp.Diff(want, login.Speaker); diff != "" {
			t.Fatalf("speaker mismatch (-want +got):\n%s", diff)
		}
		if login.Token != "tok" || login.ExpiresAt.IsZero() {
			t.Fatalf("unexpected token data %+v", login)
		}
	})

	t.Run("maps invalid credentials", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error_code":"AUTH_INVALID_CREDENTIALS","message":"Invalid Speaker ID or Mobile Number"}`))
		})

		_, err := c.LoginSpeaker(context.Background(), "NM-001", "0000000000")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
		if errors.Is(err, ErrUnauthorized) {
			t.Fatalf("invalid credentials must not match ErrUnauthorized")
		}
		if err.Error() != "Invalid Speaker ID or Mobile Number" {
			t.Fatalf("unexpected message %q", err.Error())
		}
	})
}

func TestPersonalSessionsSendsBearerToken(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer speaker-token" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		if got := r.URL.Query().Get("speaker_id"); got != "NM 001" {
			t.Errorf("unexpected speaker_id %q", got)
		}
		_, _ = w.Write([]byte(`{"sessions":[{"id":1,"speaker_id":"NM 001","title":"A","time":"t","venue":"v"}]}`))
	})

	sessions, err := c.PersonalSessions(context.Background(), "speaker-token", "NM 001")
	if err != nil {
		t.Fatalf("PersonalSessions failed: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Title != "A" {
		t.Fatalf("unexpected sessions %+v", sessions)
	}
}

func TestSaveSpeakerChoosesMethod(t *testing.T) {
	t.Parallel()

	var calls []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		_, _ = w.Write([]byte(`{"id":4,"speaker_id":"NM-004","name":"N","phone":"1"}`))
	})

	if _, err := c.SaveSpeaker(context.Background(), "t", Speaker{SpeakerID: "NM-004", Name: "N"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := c.SaveSpeaker(context.Background(), "t", Speaker{ID: 4, SpeakerID: "NM-004", Name: "N"}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if diff := cmp.Diff([]string{"POST /api/speakers", "PUT /api/speakers/4"}, calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveScheduleEntryReturnsWarnings(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"entry":{"id":12,"day":"Day 1","time":"09:00","type":"Keynote","title":"Opening","venue":"Auditorium"},"warnings":[{"entry_id":3,"day":"Day 1","time":"09:00","venue":"Auditorium"}]}`))
	})

	entry, warnings, err := c.SaveScheduleEntry(context.Background(), "t", ScheduleEntry{Day: "Day 1", Title: "Opening"})
	if err != nil {
		t.Fatalf("SaveScheduleEntry failed: %v", err)
	}
	if entry.ID != 12 || entry.Type != EntryTypeKeynote {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if diff := cmp.Diff([]VenueClash{{EntryID: 3, Day: "Day 1", Time: "09:00", Venue: "Auditorium"}}, warnings); diff != "" {
		t.Fatalf("warnings mismatch (-want +got):\n%s", diff)
	}
}

func TestAPIErrorMatching(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err    *APIError
		target error
		want   bool
	}{
		{&APIError{Status: http.StatusNotFound}, ErrNotFound, true},
		{&APIError{Status: http.StatusUnprocessableEntity}, ErrValidation, true},
		{&APIError{Status: http.StatusBadRequest}, ErrValidation, true},
		{&APIError{Status: http.StatusForbidden}, ErrUnauthorized, true},
		{&APIError{Status: http.StatusUnauthorized, Code: "AUTH_UNAUTHORIZED"}, ErrUnauthorized, true},
		{&APIError{Status: http.StatusConflict}, ErrConflict, true},
		{&APIError{Status: http.StatusInternalServerError}, ErrNotFound, false},
	}
	for _, tc := range tests {
		if got := errors.Is(tc.err, tc.target); got != tc.want {
			t.Fatalf("errors.Is(%+v, %v) = %v, want %v", tc.err, tc.target, got, tc.want)
		}
	}

	if msg := (&APIError{Status: http.StatusBadGateway}).Error(); msg != "portal API returned 502 Bad Gateway" {
		t.Fatalf("unexpected fallback message %q", msg)
	}
}

func TestMapEscapesName(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/maps/campus" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"name":"campus","title":"Campus Map","center":[17.5,78.5],"zoom":16,"focus_zoom":18,"categories":[]}`))
	})

	m, err := c.Map(context.Background(), "campus")
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if m.Zoom != 16 || m.Center[0] != 17.5 {
		t.Fatalf("unexpected map %+v", m)
	}
}
