package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/conference-portal/internal/persistence"
	"github.com/example/conference-portal/internal/reconcile"
	"github.com/example/conference-portal/internal/scheduler"
)

// ScheduleService serves the master schedule and validates admin edits.
type ScheduleService struct {
	schedule persistence.ScheduleRepository
	cache    *scheduleCache
	logger   *slog.Logger
}

// NewScheduleService wires dependencies for schedule operations. A cacheTTL
// of zero disables the read cache.
func NewScheduleService(schedule persistence.ScheduleRepository, cacheTTL time.Duration) *ScheduleService {
	return NewScheduleServiceWithLogger(schedule, cacheTTL, nil)
}

// NewScheduleServiceWithLogger wires dependencies with a specific logger.
func NewScheduleServiceWithLogger(schedule persistence.ScheduleRepository, cacheTTL time.Duration, logger *slog.Logger) *ScheduleService {
	return &ScheduleService{
		schedule: schedule,
		cache:    newScheduleCache(cacheTTL),
		logger:   defaultLogger(logger),
	}
}

func (s *ScheduleService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ScheduleService", operation, attrs...)
}

// ListSchedule returns every master schedule entry in creation order.
func (s *ScheduleService) ListSchedule(ctx context.Context) (entries []ScheduleEntry, err error) {
	if s == nil {
		return nil, fmt.Errorf("ScheduleService is nil")
	}
	if cached, ok := s.cache.Get(); ok {
		return cached, nil
	}

	started := time.Now()
	logger := s.loggerWith(ctx, "ListSchedule")
	defer func() { logOutcome(ctx, logger, started, "schedule loaded", err, "count", len(entries)) }()

	gen := s.cache.Generation()
	records, err := s.schedule.ListSchedule(ctx)
	if err != nil {
		return nil, mapRepoError(err, "schedule")
	}
	entries = make([]ScheduleEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, entryFromRecord(r))
	}
	s.cache.StoreIfCurrent(gen, entries)
	return entries, nil
}

// GroupedSchedule returns the master schedule bucketed by day label in order
// of first appearance.
func (s *ScheduleService) GroupedSchedule(ctx context.Context) ([]DayGroup, error) {
	entries, err := s.ListSchedule(ctx)
	if err != nil {
		return nil, err
	}
	return reconcile.GroupByDay(entries, func(e ScheduleEntry) string { return e.Day }), nil
}

// SaveEntry creates (ID == 0) or updates a master schedule entry and reports
// venue clashes with other entries. Clashes never block the write.
// Administrators only.
func (s *ScheduleService) SaveEntry(ctx context.Context, params SaveEntryParams) (result SaveEntryResult, err error) {
	if s == nil {
		return SaveEntryResult{}, fmt.Errorf("ScheduleService is nil")
	}
	input := normalizeEntryInput(params.Input)
	operation := "CreateEntry"
	if params.ID != 0 {
		operation = "UpdateEntry"
	}
	started := time.Now()
	logger := s.loggerWith(ctx, operation, "id", params.ID, "day", input.Day, "type", input.Type)
	defer func() {
		logOutcome(ctx, logger, started, "schedule entry saved", err, "entry_id", result.Entry.ID, "warnings", len(result.Warnings))
	}()

	if !params.Principal.IsAdmin {
		return SaveEntryResult{}, ErrUnauthorized
	}
	if vErr := validateStruct(input); vErr.HasErrors() {
		return SaveEntryResult{}, vErr
	}

	entry := ScheduleEntry{
		ID:                 params.ID,
		Day:                input.Day,
		Time:               input.Time,
		Type:               EntryType(input.Type),
		Title:              input.Title,
		Venue:              input.Venue,
		SessionChair:       optionalString(input.SessionChair),
		SessionCoordinator: optionalString(input.SessionCoordinator),
	}

	warnings, err := s.detectClashes(ctx, entry)
	if err != nil {
		return SaveEntryResult{}, err
	}

	var saved persistence.ScheduleEntry
	if entry.ID == 0 {
		saved, err = s.schedule.CreateScheduleEntry(ctx, entryToRecord(entry))
	} else {
		saved, err = s.schedule.UpdateScheduleEntry(ctx, entryToRecord(entry))
	}
	if err != nil {
		return SaveEntryResult{}, mapRepoError(err, "type")
	}
	s.cache.Invalidate()

	return SaveEntryResult{Entry: entryFromRecord(saved), Warnings: warnings}, nil
}

// CreateEntry adds a master schedule entry. Administrators only.
func (s *ScheduleService) CreateEntry(ctx context.Context, principal Principal, input EntryInput) (SaveEntryResult, error) {
	return s.SaveEntry(ctx, SaveEntryParams{Principal: principal, Input: input})
}

// UpdateEntry replaces the fields of entry id. Administrators only.
func (s *ScheduleService) UpdateEntry(ctx context.Context, principal Principal, id int64, input EntryInput) (SaveEntryResult, error) {
	if id <= 0 {
		return SaveEntryResult{}, ErrNotFound
	}
	return s.SaveEntry(ctx, SaveEntryParams{Principal: principal, ID: id, Input: input})
}

// DeleteEntry removes a master schedule entry. Administrators only.
func (s *ScheduleService) DeleteEntry(ctx context.Context, principal Principal, id int64) (err error) {
	if s == nil {
		return fmt.Errorf("ScheduleService is nil")
	}
	started := time.Now()
	logger := s.loggerWith(ctx, "DeleteEntry", "id", id)
	defer func() { logOutcome(ctx, logger, started, "schedule entry deleted", err) }()

	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if err := s.schedule.DeleteScheduleEntry(ctx, id); err != nil {
		return mapRepoError(err, "id")
	}
	s.cache.Invalidate()
	return nil
}

func (s *ScheduleService) detectClashes(ctx context.Context, candidate ScheduleEntry) ([]VenueClash, error) {
	records, err := s.schedule.ListSchedule(ctx)
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}

	existing := make([]scheduler.Slot, 0, len(records))
	for _, r := range records {
		existing = append(existing, scheduler.Slot{ID: r.ID, Day: r.Day, Time: r.Time, Venue: r.Venue})
	}
	clashes := scheduler.DetectVenueClashes(existing, scheduler.Slot{
		ID:    candidate.ID,
		Day:   candidate.Day,
		Time:  candidate.Time,
		Venue: candidate.Venue,
	})
	if len(clashes) == 0 {
		return nil, nil
	}
	warnings := make([]VenueClash, 0, len(clashes))
	for _, c := range clashes {
		warnings = append(warnings, VenueClash{EntryID: c.WithID, Day: c.Day, Time: c.Time, Venue: c.Venue})
	}
	return warnings, nil
}

func normalizeEntryInput(input EntryInput) EntryInput {
	out := EntryInput{
		Day:                strings.TrimSpace(input.Day),
		Time:               strings.TrimSpace(input.Time),
		Type:               strings.TrimSpace(input.Type),
		Title:              strings.TrimSpace(input.Title),
		Venue:              strings.TrimSpace(input.Venue),
		SessionChair:       strings.TrimSpace(input.SessionChair),
		SessionCoordinator: strings.TrimSpace(input.SessionCoordinator),
	}
	if out.Type == "" {
		out.Type = string(EntryTypeSession)
	}
	return out
}
