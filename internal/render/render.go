// Package render prints portal views to a terminal.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/example/conference-portal/internal/campus"
	"github.com/example/conference-portal/internal/client"
	"github.com/example/conference-portal/internal/portal"
	"github.com/example/conference-portal/internal/reconcile"
)

var (
	colorAccent  = lipgloss.Color("#8BC34A")
	colorMuted   = lipgloss.Color("#8a94a6")
	colorError   = lipgloss.Color("#e53935")
	colorWarning = lipgloss.Color("#FFC107")
	colorInfo    = lipgloss.Color("#2196F3")
)

// Printer writes styled views to w. Colors are only emitted when w is a
// terminal that supports them.
type Printer struct {
	w   io.Writer
	now func() time.Time

	title   lipgloss.Style
	heading lipgloss.Style
	muted   lipgloss.Style
	saved   lipgloss.Style
	notice  map[portal.Level]lipgloss.Style
}

// New builds a Printer for w.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:       w,
		now:     time.Now,
		title:   r.NewStyle().Bold(true).Foreground(colorAccent),
		heading: r.NewStyle().Bold(true).Underline(true),
		muted:   r.NewStyle().Foreground(colorMuted),
		saved:   r.NewStyle().Foreground(colorAccent),
		notice: map[portal.Level]lipgloss.Style{
			portal.LevelInfo:    r.NewStyle().Foreground(colorInfo),
			portal.LevelSuccess: r.NewStyle().Foreground(colorAccent),
			portal.LevelWarning: r.NewStyle().Foreground(colorWarning),
			portal.LevelError:   r.NewStyle().Foreground(colorError).Bold(true),
		},
	}
}

// WithClock overrides the time source used for relative expiry.
func (p *Printer) WithClock(now func() time.Time) *Printer {
	p.now = now
	return p
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

// Notices prints each notice on its own line.
func (p *Printer) Notices(notices ...portal.Notice) {
	for _, n := range notices {
		if n.Text == "" {
			continue
		}
		style, ok := p.notice[n.Level]
		if !ok {
			style = p.notice[portal.LevelInfo]
		}
		p.printf("%s\n", style.Render("• "+n.Text))
	}
}

// Home prints the landing page.
func (p *Printer) Home(view portal.HomeView) {
	p.printf("%s\n", p.title.Render(view.Title))
	p.printf("%s\n", p.muted.Render(view.Subtitle))
	if view.Greeting != "" {
		p.printf("%s\n", view.Greeting)
	}
	p.printf("\n  %s  %s\n\n", view.Primary.Label, p.muted.Render("portal open "+view.Primary.Target))

	p.printf("%s\n", p.heading.Render("Navigate"))
	for _, link := range view.Navigate {
		hint := "portal open " + link.Target
		if !strings.HasPrefix(link.Target, "/") {
			hint = link.Target
		}
		p.printf("  %s  %s\n", link.Label, p.muted.Render(hint))
	}
}

// Dashboard prints the speaker dashboard.
func (p *Printer) Dashboard(view portal.DashboardView) {
	p.Notices(view.Notices...)
	p.printf("%s\n", p.title.Render("Welcome, "+view.Speaker.Name))
	p.printf("%s\n\n", p.muted.Render("Speaker ID: "+view.Speaker.SpeakerID))

	p.printf("%s\n", p.heading.Render("Your Sessions"))
	if len(view.PersonalSessions) == 0 {
		p.printf("%s\n", p.muted.Render("No sessions assigned."))
	}
	for _, s := range view.PersonalSessions {
		p.printf("  %s  %s  %s\n", s.Time, s.Title, p.muted.Render(s.Venue))
	}
	p.printf("\n")
	p.groups(view.Schedule)
}

// Schedule prints the public schedule page.
func (p *Printer) Schedule(view portal.ScheduleView) {
	p.Notices(view.Notices...)
	p.printf("%s\n\n", p.title.Render("Conference Schedule"))
	p.groups(view.Schedule)
}

func (p *Printer) groups(groups []reconcile.DayGroup[portal.ScheduleItem]) {
	if len(groups) == 0 {
		p.printf("%s\n", p.muted.Render("No schedule entries."))
		return
	}
	for _, g := range groups {
		p.printf("%s\n", p.heading.Render(g.Day))
		for _, item := range g.Entries {
			p.printf("%s\n", p.entryLine(item))
		}
		p.printf("\n")
	}
}

func (p *Printer) entryLine(item portal.ScheduleItem) string {
	mark := "[ ]"
	if item.Saved {
		mark = p.saved.Render("[x]")
	}
	e := item.Entry
	line := fmt.Sprintf("%s #%d %s  %-8s %s", mark, e.ID, e.Time, e.Type, e.Title)
	if e.Venue != "" {
		line += "  " + p.muted.Render("@ "+e.Venue)
	}
	var roles []string
	if e.SessionChair != "" {
		roles = append(roles, "Chair: "+e.SessionChair)
	}
	if e.SessionCoordinator != "" {
		roles = append(roles, "Coordinator: "+e.SessionCoordinator)
	}
	if len(roles) > 0 {
		line += "\n      " + p.muted.Render(strings.Join(roles, " | "))
	}
	return line
}

// Speakers prints the admin speaker table.
func (p *Printer) Speakers(speakers []client.Speaker) {
	p.printf("%s\n", p.title.Render(fmt.Sprintf("Speakers (%d)", len(speakers))))
	for _, s := range speakers {
		p.printf("#%d  %-10s %-24s %s\n", s.ID, s.SpeakerID, s.Name, p.muted.Render(s.Phone))
		for _, ps := range s.PersonalSessions {
			p.printf("      %s  %s  %s\n", ps.Time, ps.Title, p.muted.Render(ps.Venue))
		}
	}
}

// Entries prints master schedule rows in id order.
func (p *Printer) Entries(entries []client.ScheduleEntry) {
	p.printf("%s\n", p.title.Render(fmt.Sprintf("Schedule entries (%d)", len(entries))))
	for _, e := range entries {
		day := e.Day
		if day == "" {
			day = reconcile.OtherEventsLabel
		}
		p.printf("%s\n", p.entryLine(portal.ScheduleItem{Entry: e})+"  "+p.muted.Render(day))
	}
}

// AdminSession prints who is signed in and when the session lapses.
func (p *Printer) AdminSession(session client.AdminSession) {
	name := session.Admin.DisplayName
	if name == "" {
		name = session.Admin.Email
	}
	p.printf("%s\n", p.title.Render("Signed in as "+name))
	if !session.ExpiresAt.IsZero() {
		p.printf("%s\n", p.muted.Render("Session expires "+humanize.RelTime(session.ExpiresAt, p.now(), "ago", "from now")))
	}
}

// Speaker prints the signed-in speaker identity.
func (p *Printer) Speaker(s client.Speaker, expiresAt time.Time) {
	p.printf("%s\n", p.title.Render(s.Name))
	p.printf("%s\n", p.muted.Render("Speaker ID: "+s.SpeakerID))
	if !expiresAt.IsZero() {
		p.printf("%s\n", p.muted.Render("Token expires "+humanize.RelTime(expiresAt, p.now(), "ago", "from now")))
	}
}

// Map prints a map's categories and current camera.
func (p *Printer) Map(view portal.MapView) {
	p.Notices(view.Notices...)
	p.printf("%s\n", p.title.Render(view.Map.Title))
	p.printf("%s\n\n", p.muted.Render(formatView(view.View)))
	for _, cat := range view.Map.Categories {
		p.printf("%s\n", p.heading.Render(cat.Name))
		for _, loc := range cat.Locations {
			marker := " "
			if strings.EqualFold(loc.Label, view.Focused) {
				marker = p.saved.Render(">")
			}
			line := fmt.Sprintf(" %s %s", marker, loc.Label)
			if loc.MenuImage != "" {
				line += "  " + p.muted.Render("menu: "+loc.MenuImage)
			}
			p.printf("%s\n", line)
		}
	}
}

// MapList prints the available maps.
func (p *Printer) MapList(maps []campus.Summary) {
	for _, m := range maps {
		p.printf("%-8s %s\n", m.Name, m.Title)
	}
}

func formatView(v campus.View) string {
	return fmt.Sprintf("center %.6f, %.6f  zoom %d", v.Center[0], v.Center[1], v.Zoom)
}
