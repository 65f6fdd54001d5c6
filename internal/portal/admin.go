package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/conference-portal/internal/client"
	"github.com/example/conference-portal/internal/prefs"
)

// Form defaults.
const (
	DefaultSpeakerPhone = "1234567890"
	DefaultEntryDay     = "Day 1 (Feb 7)"
)

// AdminRemote is the slice of the remote client used by the admin console.
type AdminRemote interface {
	AdminLogin(ctx context.Context, email, password string) (client.AdminSession, error)
	AdminSession(ctx context.Context, token string) (client.AdminSession, error)
	AdminLogout(ctx context.Context, token string) error
	Speakers(ctx context.Context, token string) ([]client.Speaker, error)
	SaveSpeaker(ctx context.Context, token string, speaker client.Speaker) (client.Speaker, error)
	DeleteSpeaker(ctx context.Context, token string, id int64) error
	Schedule(ctx context.Context) ([]client.ScheduleEntry, error)
	SaveScheduleEntry(ctx context.Context, token string, entry client.ScheduleEntry) (client.ScheduleEntry, []client.VenueClash, error)
	DeleteScheduleEntry(ctx context.Context, token string, id int64) error
}

// SpeakerForm is the admin speaker editor. ID is zero for a new speaker.
type SpeakerForm struct {
	ID        int64
	SpeakerID string
	Name      string
	Phone     string
	Sessions  []client.PersonalSession
}

// NewSpeakerForm returns an empty form with its defaults applied.
func NewSpeakerForm() SpeakerForm {
	return SpeakerForm{Phone: DefaultSpeakerPhone}
}

// EditSpeakerForm loads an existing speaker into the editor.
func EditSpeakerForm(s client.Speaker) SpeakerForm {
	sessions := make([]client.PersonalSession, len(s.PersonalSessions))
	copy(sessions, s.PersonalSessions)
	return SpeakerForm{ID: s.ID, SpeakerID: s.SpeakerID, Name: s.Name, Phone: s.Phone, Sessions: sessions}
}

func (f SpeakerForm) speaker() client.Speaker {
	phone := strings.TrimSpace(f.Phone)
	if phone == "" {
		phone = DefaultSpeakerPhone
	}
	sessions := make([]client.PersonalSession, 0, len(f.Sessions))
	for _, s := range f.Sessions {
		if strings.TrimSpace(s.Title) == "" {
			continue
		}
		sessions = append(sessions, client.PersonalSession{Title: s.Title, Time: s.Time, Venue: s.Venue})
	}
	return client.Speaker{
		ID:               f.ID,
		SpeakerID:        strings.TrimSpace(f.SpeakerID),
		Name:             strings.TrimSpace(f.Name),
		Phone:            phone,
		PersonalSessions: sessions,
	}
}

// NewEntryForm returns a blank schedule entry with its defaults applied.
func NewEntryForm() client.ScheduleEntry {
	return client.ScheduleEntry{Day: DefaultEntryDay, Type: client.EntryTypeSession}
}

// AdminConsole manages speakers and the master schedule. The admin session
// token lives under prefs.KeyAdminSession, apart from speaker identity.
type AdminConsole struct {
	remote AdminRemote
	store  *prefs.Store
	logger *slog.Logger
}

// NewAdminConsole wires the admin surface.
func NewAdminConsole(remote AdminRemote, store *prefs.Store, logger *slog.Logger) *AdminConsole {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminConsole{remote: remote, store: store, logger: logger}
}

// Login signs the administrator in and stores the session.
func (c *AdminConsole) Login(ctx context.Context, email, password string) (client.AdminSession, Notice, error) {
	session, err := c.remote.AdminLogin(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return client.AdminSession{}, errorNotice(err), err
	}
	if err := c.store.PutJSON(prefs.KeyAdminSession, session); err != nil {
		return client.AdminSession{}, errorNotice(err), err
	}
	c.logger.DebugContext(ctx, "admin session stored", "admin_id", session.Admin.ID)
	return session, success(msgLoggedIn), nil
}

// Session returns the stored admin session after confirming it remotely. A
// rejected token is forgotten.
func (c *AdminConsole) Session(ctx context.Context) (client.AdminSession, error) {
	token, ok := c.token()
	if !ok {
		return client.AdminSession{}, ErrAdminRequired
	}
	session, err := c.remote.AdminSession(ctx, token)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			_ = c.store.Remove(prefs.KeyAdminSession)
			return client.AdminSession{}, ErrAdminRequired
		}
		return client.AdminSession{}, err
	}
	return session, nil
}

// Logout revokes the session remotely and forgets it locally. The local copy
// is removed even when the remote call fails.
func (c *AdminConsole) Logout(ctx context.Context) (Notice, error) {
	token, ok := c.token()
	if ok {
		if err := c.remote.AdminLogout(ctx, token); err != nil && !errors.Is(err, client.ErrUnauthorized) {
			c.logger.WarnContext(ctx, "remote admin logout failed", "error", err)
		}
	}
	if err := c.store.Remove(prefs.KeyAdminSession); err != nil {
		return errorNotice(err), err
	}
	return info(msgLoggedOut), nil
}

// Speakers lists speakers with their personal sessions.
func (c *AdminConsole) Speakers(ctx context.Context) ([]client.Speaker, []Notice) {
	token, ok := c.token()
	if !ok {
		return nil, []Notice{failure(msgAdminRequired)}
	}
	speakers, err := c.remote.Speakers(ctx, token)
	if err != nil {
		c.logger.WarnContext(ctx, "speaker list fetch failed", "error", err)
		return nil, []Notice{errorNotice(err)}
	}
	return speakers, nil
}

// SaveSpeaker creates or updates a speaker and replaces its personal
// sessions. Missing id or name is rejected before any remote call.
func (c *AdminConsole) SaveSpeaker(ctx context.Context, form SpeakerForm) (client.Speaker, Notice, error) {
	speaker := form.speaker()
	if speaker.SpeakerID == "" || speaker.Name == "" {
		return client.Speaker{}, failure(msgSpeakerRequired), ErrSpeakerIncomplete
	}
	token, ok := c.token()
	if !ok {
		return client.Speaker{}, failure(msgAdminRequired), ErrAdminRequired
	}

	saved, err := c.remote.SaveSpeaker(ctx, token, speaker)
	if err != nil {
		return client.Speaker{}, errorNotice(err), err
	}
	if form.ID == 0 {
		return saved, success(msgUserAdded), nil
	}
	return saved, success(msgUserUpdated), nil
}

// DeleteSpeaker removes the speaker with surrogate id.
func (c *AdminConsole) DeleteSpeaker(ctx context.Context, id int64) (Notice, error) {
	token, ok := c.token()
	if !ok {
		return failure(msgAdminRequired), ErrAdminRequired
	}
	if err := c.remote.DeleteSpeaker(ctx, token, id); err != nil {
		return errorNotice(err), err
	}
	return success(msgUserDeleted), nil
}

// Schedule lists master schedule rows in creation order.
func (c *AdminConsole) Schedule(ctx context.Context) ([]client.ScheduleEntry, []Notice) {
	entries, err := c.remote.Schedule(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "schedule fetch failed", "error", err)
		return nil, []Notice{failure(msgScheduleLoadFailed)}
	}
	return entries, nil
}

// SaveEntry creates or updates a schedule row. Venue clashes reported by
// the server become warning notices; the write itself still succeeds.
func (c *AdminConsole) SaveEntry(ctx context.Context, entry client.ScheduleEntry) (client.ScheduleEntry, []Notice, error) {
	if strings.TrimSpace(entry.Title) == "" {
		return client.ScheduleEntry{}, []Notice{failure(msgTitleRequired)}, ErrEntryIncomplete
	}
	if entry.Type == "" {
		entry.Type = client.EntryTypeSession
	}
	token, ok := c.token()
	if !ok {
		return client.ScheduleEntry{}, []Notice{failure(msgAdminRequired)}, ErrAdminRequired
	}

	saved, clashes, err := c.remote.SaveScheduleEntry(ctx, token, entry)
	if err != nil {
		return client.ScheduleEntry{}, []Notice{errorNotice(err)}, err
	}

	notices := make([]Notice, 0, 1+len(clashes))
	if entry.ID == 0 {
		notices = append(notices, success(msgEventAdded))
	} else {
		notices = append(notices, success(msgEventUpdated))
	}
	for _, clash := range clashes {
		notices = append(notices, Notice{
			Level: LevelWarning,
			Text:  fmt.Sprintf("%s is also booked at %s %s (entry #%d)", clash.Venue, clash.Day, clash.Time, clash.EntryID),
		})
	}
	return saved, notices, nil
}

// DeleteEntry removes a schedule row.
func (c *AdminConsole) DeleteEntry(ctx context.Context, id int64) (Notice, error) {
	token, ok := c.token()
	if !ok {
		return failure(msgAdminRequired), ErrAdminRequired
	}
	if err := c.remote.DeleteScheduleEntry(ctx, token, id); err != nil {
		return errorNotice(err), err
	}
	return success(msgEventDeleted), nil
}

func (c *AdminConsole) token() (string, bool) {
	var session client.AdminSession
	ok, err := c.store.GetJSON(prefs.KeyAdminSession, &session)
	if err != nil {
		c.logger.Debug("ignoring unreadable admin session", "error", err)
		return "", false
	}
	if !ok || session.Token == "" {
		return "", false
	}
	return session.Token, true
}
