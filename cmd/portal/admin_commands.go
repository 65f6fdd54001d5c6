package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/conference-portal/internal/client"
	"github.com/example/conference-portal/internal/portal"
)

func newAdminCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage speakers and the master schedule",
	}
	cmd.AddCommand(
		newAdminLoginCommand(opts),
		newAdminLogoutCommand(opts),
		newAdminWhoamiCommand(opts),
		newAdminSpeakersCommand(opts),
		newAdminSpeakerSaveCommand(opts),
		newAdminSpeakerDeleteCommand(opts),
		newAdminEntriesCommand(opts),
		newAdminEntrySaveCommand(opts),
		newAdminEntryDeleteCommand(opts),
	)
	return cmd
}

func newAdminLoginCommand(opts *rootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as an administrator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.openClient()
			if err != nil {
				return err
			}
			session, notice, err := app.console().Login(cmd.Context(), email, password)
			app.printer.Notices(notice)
			if err != nil {
				return err
			}
			app.printer.AdminSession(session)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "administrator email")
	cmd.Flags().StringVar(&password, "password", "", "administrator password")
	return cmd
}

func newAdminLogoutCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the administrator session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.openClient()
			if err != nil {
				return err
			}
			notice, err := app.console().Logout(cmd.Context())
			app.printer.Notices(notice)
			return err
		},
	}
}

func newAdminWhoamiCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current administrator session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.openClient()
			if err != nil {
				return err
			}
			session, err := app.console().Session(cmd.Context())
			if err != nil {
				return err
			}
			app.printer.AdminSession(session)
			return nil
		},
	}
}

func newAdminSpeakersCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "speakers",
		Short: "List speakers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.openClient()
			if err != nil {
				return err
			}
			speakers, notices := app.console().Speakers(cmd.Context())
			app.printer.Notices(notices...)
			app.printer.Speakers(speakers)
			return nil
		},
	}
}

func newAdminSpeakerSaveCommand(opts *rootOptions) *cobra.Command {
	var (
		id       int64
		form     = portal.NewSpeakerForm()
		sessions []string
	)

	cmd := &cobra.Command{
		Use:   "speaker-save",
		Short: "Create a speaker, or update one when --id is given",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := parsePersonalSessions(sessions)
			if err != nil {
				return err
			}
			form.ID = id
			form.Sessions = parsed

			app, err := opts.openClient()
			if err != nil {
				return err
			}
			saved, notice, err := app.console().SaveSpeaker(cmd.Context(), form)
			app.printer.Notices(notice)
			if err != nil {
				return err
			}
			app.printer.Speakers([]client.Speaker{saved})
			return nil
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "record id of the speaker to update")
	cmd.Flags().StringVar(&form.SpeakerID, "speaker-id", "", "speaker identifier")
	cmd.Flags().StringVar(&form.Name, "name", "", "display name")
	cmd.Flags().StringVar(&form.Phone, "phone", form.Phone, "mobile number used to sign in")
	cmd.Flags().StringArrayVar(&sessions, "session", nil, `personal session as "title|time|venue" (repeatable)`)
	return cmd
}

// parsePersonalSessions reads "title|time|venue" values. Time and venue may
// be omitted.
func parsePersonalSessions(values []string) ([]client.PersonalSession, error) {
	sessions := make([]client.PersonalSession, 0, len(values))
	for _, value := range values {
		parts := strings.SplitN(value, "|", 3)
		title := strings.TrimSpace(parts[0])
		if title == "" {
			return nil, fmt.Errorf("session %q has no title", value)
		}
		session := client.PersonalSession{Title: title}
		if len(parts) > 1 {
			session.Time = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			session.Venue = strings.TrimSpace(parts[2])
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func newAdminSpeakerDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "speaker-delete ID",
		Short: "Delete a speaker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[0])
			if err != nil {
				return err
			}
			app, err := opts.openClient()
			if err != nil {
				return err
			}
			notice, err := app.console().DeleteSpeaker(cmd.Context(), id)
			app.printer.Notices(notice)
			return err
		},
	}
}

func newAdminEntriesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "entries",
		Short: "List master schedule entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.openClient()
			if err != nil {
				return err
			}
			entries, notices := app.console().Schedule(cmd.Context())
			app.printer.Notices(notices...)
			app.printer.Entries(entries)
			return nil
		},
	}
}

func newAdminEntrySaveCommand(opts *rootOptions) *cobra.Command {
	var (
		entry     = portal.NewEntryForm()
		entryType = string(entry.Type)
	)

	cmd := &cobra.Command{
		Use:   "entry-save",
		Short: "Create a schedule entry, or update one when --id is given",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, err := parseEntryType(entryType)
			if err != nil {
				return err
			}
			entry.Type = kind

			app, err := opts.openClient()
			if err != nil {
				return err
			}
			saved, notices, err := app.console().SaveEntry(cmd.Context(), entry)
			app.printer.Notices(notices...)
			if err != nil {
				return err
			}
			app.printer.Entries([]client.ScheduleEntry{saved})
			return nil
		},
	}
	cmd.Flags().Int64Var(&entry.ID, "id", 0, "record id of the entry to update")
	cmd.Flags().StringVar(&entry.Day, "day", entry.Day, "conference day label")
	cmd.Flags().StringVar(&entry.Time, "time", "", "time slot, such as 09:00 - 10:00")
	cmd.Flags().StringVar(&entryType, "type", entryType, "Session, Keynote, Break, Event or Sponsor")
	cmd.Flags().StringVar(&entry.Title, "title", "", "entry title")
	cmd.Flags().StringVar(&entry.Venue, "venue", "", "venue")
	cmd.Flags().StringVar(&entry.SessionChair, "chair", "", "session chair")
	cmd.Flags().StringVar(&entry.SessionCoordinator, "coordinator", "", "session coordinator")
	return cmd
}

func parseEntryType(value string) (client.EntryType, error) {
	for _, t := range client.EntryTypes {
		if strings.EqualFold(string(t), strings.TrimSpace(value)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown entry type %q", value)
}

func newAdminEntryDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "entry-delete ID",
		Short: "Delete a schedule entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[0])
			if err != nil {
				return err
			}
			app, err := opts.openClient()
			if err != nil {
				return err
			}
			notice, err := app.console().DeleteEntry(cmd.Context(), id)
			app.printer.Notices(notice)
			return err
		},
	}
}

func parseRecordID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
