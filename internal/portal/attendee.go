package portal

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/example/conference-portal/internal/client"
	"github.com/example/conference-portal/internal/identity"
	"github.com/example/conference-portal/internal/prefs"
	"github.com/example/conference-portal/internal/reconcile"
)

// ScheduleSource is the slice of the remote client the attendee views read.
type ScheduleSource interface {
	Schedule(ctx context.Context) ([]client.ScheduleEntry, error)
	PersonalSessions(ctx context.Context, token, speakerID string) ([]client.PersonalSession, error)
}

// ScheduleItem is a master schedule row with the viewer's saved flag.
type ScheduleItem struct {
	Entry client.ScheduleEntry
	Saved bool
}

// DashboardView is the signed-in speaker's landing view. Personal sessions
// and the master schedule are independent regions.
type DashboardView struct {
	Speaker          client.Speaker
	PersonalSessions []client.PersonalSession
	Schedule         []reconcile.DayGroup[ScheduleItem]
	Notices          []Notice
}

// ScheduleView is the public schedule page.
type ScheduleView struct {
	Viewer   identity.Viewer
	Schedule []reconcile.DayGroup[ScheduleItem]
	Notices  []Notice
}

// Attendee builds the dashboard and schedule views.
type Attendee struct {
	source ScheduleSource
	store  *prefs.Store
	logger *slog.Logger
}

// NewAttendee wires the attendee views.
func NewAttendee(source ScheduleSource, store *prefs.Store, logger *slog.Logger) *Attendee {
	if logger == nil {
		logger = slog.Default()
	}
	return &Attendee{source: source, store: store, logger: logger}
}

// Dashboard fetches the master schedule and the viewer's personal sessions
// concurrently. A failed fetch leaves its region empty and adds a notice.
func (a *Attendee) Dashboard(ctx context.Context, viewer identity.Viewer) (DashboardView, error) {
	if !viewer.Authenticated() {
		return DashboardView{}, ErrIdentityRequired
	}

	var (
		entries    []client.ScheduleEntry
		sessions   []client.PersonalSession
		scheduleEr error
		sessionsEr error
	)

	var g errgroup.Group
	g.Go(func() error {
		entries, scheduleEr = a.source.Schedule(ctx)
		return nil
	})
	g.Go(func() error {
		sessions, sessionsEr = a.personalSessions(ctx, viewer)
		return nil
	})
	_ = g.Wait()

	view := DashboardView{Speaker: *viewer.Speaker}
	if scheduleEr != nil {
		a.logger.WarnContext(ctx, "schedule fetch failed", "error", scheduleEr)
		view.Notices = append(view.Notices, failure(msgScheduleLoadFailed))
		entries = nil
	}
	if sessionsEr != nil {
		a.logger.WarnContext(ctx, "personal sessions fetch failed", "speaker_id", viewer.SpeakerID(), "error", sessionsEr)
		view.Notices = append(view.Notices, failure(msgSessionsLoadFailed))
		sessions = nil
	}

	view.PersonalSessions = sessions
	view.Schedule = a.annotate(entries, a.store.Load(viewer.ScheduleKey()))
	return view, nil
}

func (a *Attendee) personalSessions(ctx context.Context, viewer identity.Viewer) ([]client.PersonalSession, error) {
	if viewer.Token == "" {
		return viewer.Speaker.PersonalSessions, nil
	}
	return a.source.PersonalSessions(ctx, viewer.Token, viewer.SpeakerID())
}

// Schedule builds the public schedule page for any viewer.
func (a *Attendee) Schedule(ctx context.Context, viewer identity.Viewer) ScheduleView {
	view := ScheduleView{Viewer: viewer}
	entries, err := a.source.Schedule(ctx)
	if err != nil {
		a.logger.WarnContext(ctx, "schedule fetch failed", "error", err)
		view.Notices = append(view.Notices, failure(msgScheduleLoadFailed))
		entries = nil
	}
	view.Schedule = a.annotate(entries, a.store.Load(viewer.ScheduleKey()))
	return view
}

// Toggle flips the viewer's saved flag for entryID and persists the result
// locally. It reports the new state.
func (a *Attendee) Toggle(ctx context.Context, viewer identity.Viewer, entryID int64) (bool, Notice, error) {
	key := viewer.ScheduleKey()
	next := reconcile.ToggleAttendance(a.store.Load(key), entryID)
	if err := a.store.Save(key, next); err != nil {
		a.logger.ErrorContext(ctx, "saving selection failed", "key", key, "error", err)
		return !reconcile.IsAttending(next, entryID), errorNotice(err), err
	}

	saved := reconcile.IsAttending(next, entryID)
	if saved {
		return true, success(msgSessionSaved), nil
	}
	return false, info(msgSessionRemoved), nil
}

func (a *Attendee) annotate(entries []client.ScheduleEntry, selection reconcile.Selection) []reconcile.DayGroup[ScheduleItem] {
	items := make([]ScheduleItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, ScheduleItem{Entry: entry, Saved: selection.Contains(entry.ID)})
	}
	return reconcile.GroupByDay(items, func(item ScheduleItem) string { return item.Entry.Day })
}
