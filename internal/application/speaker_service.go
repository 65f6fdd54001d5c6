package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/conference-portal/internal/persistence"
)

// SpeakerService manages speaker identities and their personal sessions.
type SpeakerService struct {
	speakers persistence.SpeakerRepository
	logger   *slog.Logger
}

// NewSpeakerService wires dependencies for speaker operations.
func NewSpeakerService(speakers persistence.SpeakerRepository) *SpeakerService {
	return NewSpeakerServiceWithLogger(speakers, nil)
}

// NewSpeakerServiceWithLogger wires dependencies with a specific logger.
func NewSpeakerServiceWithLogger(speakers persistence.SpeakerRepository, logger *slog.Logger) *SpeakerService {
	return &SpeakerService{speakers: speakers, logger: defaultLogger(logger)}
}

func (s *SpeakerService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SpeakerService", operation, attrs...)
}

// ListSpeakers returns every speaker, newest first. Administrators only.
func (s *SpeakerService) ListSpeakers(ctx context.Context, principal Principal) (speakers []Speaker, err error) {
	if s == nil {
		return nil, fmt.Errorf("SpeakerService is nil")
	}
	started := time.Now()
	logger := s.loggerWith(ctx, "ListSpeakers", "admin_id", principal.AdminID)
	defer func() { logOutcome(ctx, logger, started, "speakers listed", err, "count", len(speakers)) }()

	if !principal.IsAdmin {
		return nil, ErrUnauthorized
	}
	records, err := s.speakers.ListSpeakers(ctx)
	if err != nil {
		return nil, mapRepoError(err, "speaker_id")
	}
	speakers = make([]Speaker, 0, len(records))
	for _, r := range records {
		speakers = append(speakers, speakerFromRecord(r))
	}
	return speakers, nil
}

// SaveSpeaker creates (ID == 0) or updates a speaker and replaces every
// personal session it owns. A blank phone is stored as DefaultSpeakerPhone and
// sessions without a title are dropped. Administrators only.
func (s *SpeakerService) SaveSpeaker(ctx context.Context, params SaveSpeakerParams) (speaker Speaker, err error) {
	if s == nil {
		return Speaker{}, fmt.Errorf("SpeakerService is nil")
	}
	input := normalizeSpeakerInput(params.Input)
	started := time.Now()
	logger := s.loggerWith(ctx, "SaveSpeaker",
		"id", params.ID,
		"speaker_id", input.SpeakerID,
		"sessions", len(input.PersonalSessions),
	)
	defer func() { logOutcome(ctx, logger, started, "speaker saved", err) }()

	if !params.Principal.IsAdmin {
		return Speaker{}, ErrUnauthorized
	}
	if vErr := validateStruct(input); vErr.HasErrors() {
		return Speaker{}, vErr
	}

	record := persistence.Speaker{
		ID:        params.ID,
		SpeakerID: input.SpeakerID,
		Name:      input.Name,
		Phone:     input.Phone,
	}
	for _, ps := range input.PersonalSessions {
		record.PersonalSessions = append(record.PersonalSessions, persistence.PersonalSession{
			Title: ps.Title,
			Time:  ps.Time,
			Venue: ps.Venue,
		})
	}

	saved, err := s.speakers.SaveSpeaker(ctx, record)
	if err != nil {
		return Speaker{}, mapRepoError(err, "speaker_id")
	}
	return speakerFromRecord(saved), nil
}

// DeleteSpeaker removes the speaker record. Personal sessions filed under the
// speaker's id are left in place. Administrators only.
func (s *SpeakerService) DeleteSpeaker(ctx context.Context, principal Principal, id int64) (err error) {
	if s == nil {
		return fmt.Errorf("SpeakerService is nil")
	}
	started := time.Now()
	logger := s.loggerWith(ctx, "DeleteSpeaker", "id", id)
	defer func() { logOutcome(ctx, logger, started, "speaker deleted", err) }()

	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if err := s.speakers.DeleteSpeaker(ctx, id); err != nil {
		return mapRepoError(err, "id")
	}
	return nil
}

// ListPersonalSessions returns the talks filed under speakerID. A speaker may
// only read their own sessions; administrators may read anyone's.
func (s *SpeakerService) ListPersonalSessions(ctx context.Context, principal Principal, speakerID string) (sessions []PersonalSession, err error) {
	if s == nil {
		return nil, fmt.Errorf("SpeakerService is nil")
	}
	speakerID = strings.TrimSpace(speakerID)
	started := time.Now()
	logger := s.loggerWith(ctx, "ListPersonalSessions", "speaker_id", speakerID)
	defer func() { logOutcome(ctx, logger, started, "personal sessions listed", err, "count", len(sessions)) }()

	if speakerID == "" {
		vErr := &ValidationError{}
		vErr.add("speaker_id", "speaker_id is required")
		return nil, vErr
	}
	if !principal.IsAdmin && principal.SpeakerID != speakerID {
		return nil, ErrUnauthorized
	}
	records, err := s.speakers.ListPersonalSessions(ctx, speakerID)
	if err != nil {
		return nil, mapRepoError(err, "speaker_id")
	}
	return personalSessionsFromRecords(records), nil
}

func normalizeSpeakerInput(input SpeakerInput) SpeakerInput {
	out := SpeakerInput{
		SpeakerID: strings.TrimSpace(input.SpeakerID),
		Name:      strings.TrimSpace(input.Name),
		Phone:     strings.TrimSpace(input.Phone),
	}
	if out.Phone == "" {
		out.Phone = DefaultSpeakerPhone
	}
	for _, ps := range input.PersonalSessions {
		title := strings.TrimSpace(ps.Title)
		if title == "" {
			continue
		}
		out.PersonalSessions = append(out.PersonalSessions, PersonalSessionInput{
			Title: title,
			Time:  strings.TrimSpace(ps.Time),
			Venue: strings.TrimSpace(ps.Venue),
		})
	}
	return out
}
