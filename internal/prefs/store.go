// Package prefs is the local preference store: attendance selections and the
// signed-in identity, kept on the viewer's machine and never sent upstream.
package prefs

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/example/conference-portal/internal/reconcile"
)

// Well known keys.
const (
	KeySpeaker       = "speaker"
	KeySpeakerAuth   = "speakerAuth"
	KeySpeakerToken  = "speakerToken"
	KeyAdminSession  = "adminSession"
	KeyGuestSchedule = "guest_schedule"

	speakerSchedulePrefix = "schedule_"
)

// ScheduleKey derives the selection key for a viewer. An empty speaker id
// selects the bucket shared by every guest on this machine.
func ScheduleKey(speakerID string) string {
	if speakerID == "" {
		return KeyGuestSchedule
	}
	return speakerSchedulePrefix + speakerID
}

// Store layers typed access on top of a Backend.
type Store struct {
	backend Backend
	logger  *slog.Logger
}

// New wraps backend. A nil backend falls back to memory.
func New(backend Backend, logger *slog.Logger) *Store {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{backend: backend, logger: logger}
}

// Load returns the selection saved under key. Missing, unreadable or
// malformed values all produce an empty selection.
func (s *Store) Load(key string) reconcile.Selection {
	raw, ok, err := s.backend.Get(key)
	if err != nil {
		s.logger.Debug("preference read failed", "key", key, "error", err)
		return reconcile.Selection{}
	}
	if !ok || raw == "" {
		return reconcile.Selection{}
	}

	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		s.logger.Debug("ignoring malformed selection", "key", key, "error", err)
		return reconcile.Selection{}
	}
	return reconcile.Selection(ids).Normalize()
}

// Save overwrites the selection stored under key.
func (s *Store) Save(key string, selection reconcile.Selection) error {
	ids := []int64(selection.Normalize())
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("prefs: encode selection: %w", err)
	}
	return s.backend.Set(key, string(data))
}

// GetJSON decodes the value under key into v. It reports false when the key
// is absent; a decode failure is returned to the caller.
func (s *Store) GetJSON(key string, v any) (bool, error) {
	raw, ok, err := s.backend.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("prefs: decode %s: %w", key, err)
	}
	return true, nil
}

// PutJSON stores v under key as JSON.
func (s *Store) PutJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("prefs: encode %s: %w", key, err)
	}
	return s.backend.Set(key, string(data))
}

// Remove deletes every key, stopping at the first failure.
func (s *Store) Remove(keys ...string) error {
	for _, key := range keys {
		if err := s.backend.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
