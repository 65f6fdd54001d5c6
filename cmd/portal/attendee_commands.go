package main

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/conference-portal/internal/campus"
	"github.com/example/conference-portal/internal/navigation"
	"github.com/example/conference-portal/internal/portal"
)

func newLoginCommand(opts *rootOptions) *cobra.Command {
	var speakerID, mobile string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as a speaker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.openClient()
			if err != nil {
				return err
			}
			flow := app.loginFlow()
			viewer, err := flow.Submit(cmd.Context(), speakerID, mobile)
			if err != nil {
				if msg := flow.Message(); msg != "" {
					return errors.New(msg)
				}
				return err
			}
			app.printer.Speaker(*viewer.Speaker, speakerTokenExpiry(viewer.Token))
			return nil
		},
	}
	cmd.Flags().StringVar(&speakerID, "speaker-id", "", "speaker identifier")
	cmd.Flags().StringVar(&mobile, "mobile", "", "registered mobile number")
	return cmd
}

func newLogoutCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored speaker identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.openClient()
			if err != nil {
				return err
			}
			if err := app.resolver.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(opts.stdout, "Signed out")
			return nil
		},
	}
}

func newWhoamiCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored speaker identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.openClient()
			if err != nil {
				return err
			}
			viewer := app.resolver.Current()
			if !viewer.Authenticated() {
				fmt.Fprintln(opts.stdout, "Guest")
				return nil
			}
			app.printer.Speaker(*viewer.Speaker, speakerTokenExpiry(viewer.Token))
			return nil
		},
	}
}

func newDashboardCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show your sessions and saved schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.openClient()
			if err != nil {
				return err
			}
			return showDashboard(cmd, app)
		},
	}
}

func showDashboard(cmd *cobra.Command, app *clientApp) error {
	view, err := app.attendee().Dashboard(cmd.Context(), app.resolver.Current())
	if err != nil {
		if errors.Is(err, portal.ErrIdentityRequired) {
			return errors.New("sign in first with: portal login --speaker-id ID --mobile NUMBER")
		}
		return err
	}
	app.printer.Dashboard(view)
	return nil
}

func newScheduleCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Show the conference schedule grouped by day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.openClient()
			if err != nil {
				return err
			}
			app.printer.Schedule(app.attendee().Schedule(cmd.Context(), app.resolver.Current()))
			return nil
		},
	}
}

func newToggleCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ENTRY_ID",
		Short: "Add or remove a schedule entry from your saved sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid entry id %q", args[0])
			}
			app, err := opts.openClient()
			if err != nil {
				return err
			}
			_, notice, err := app.attendee().Toggle(cmd.Context(), app.resolver.Current(), id)
			app.printer.Notices(notice)
			return err
		},
	}
}

func newMapCommand(opts *rootOptions) *cobra.Command {
	var focus string

	cmd := &cobra.Command{
		Use:   "map [NAME]",
		Short: "Show a campus map, or list maps when no name is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.openClient()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				summaries, err := app.remote.Maps(cmd.Context())
				if err != nil {
					app.logger.WarnContext(cmd.Context(), "map list fetch failed, using bundled catalog", "error", err)
					summaries = campus.Default().Summaries()
				}
				app.printer.MapList(summaries)
				return nil
			}
			return showMap(cmd, app, args[0], focus)
		},
	}
	cmd.Flags().StringVar(&focus, "focus", "", "location label to center on")
	return cmd
}

func showMap(cmd *cobra.Command, app *clientApp, name, focus string) error {
	view, err := app.maps().Open(cmd.Context(), name, focus)
	if err != nil {
		return err
	}
	app.printer.Map(view)
	return nil
}

func newOpenCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "open PATH",
		Short: "Open a portal page by path, such as /schedule or /campus-map?loc=Library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.openClient()
			if err != nil {
				return err
			}
			viewer := app.resolver.Current()
			result := navigation.Resolve(args[0], viewer.Authenticated())
			if result.Redirected {
				app.logger.DebugContext(cmd.Context(), "navigation redirected", "from", args[0], "to", result.Path)
			}

			switch result.Surface {
			case navigation.Dashboard:
				return showDashboard(cmd, app)
			case navigation.Schedule:
				app.printer.Schedule(app.attendee().Schedule(cmd.Context(), viewer))
			case navigation.CampusMap:
				return showMap(cmd, app, portal.CampusMapName, locationQuery(args[0]))
			case navigation.AcadsMap:
				return showMap(cmd, app, portal.AcadsMapName, locationQuery(args[0]))
			case navigation.Login:
				fmt.Fprintln(opts.stdout, "Sign in with: portal login --speaker-id ID --mobile NUMBER")
			case navigation.Admin:
				fmt.Fprintln(opts.stdout, "Administer the portal with: portal admin --help")
			default:
				app.printer.Home(portal.Home(viewer))
			}
			return nil
		},
	}
}

// locationQuery extracts the loc parameter used by map deep links.
func locationQuery(path string) string {
	u, err := url.Parse(strings.TrimSpace(path))
	if err != nil {
		return ""
	}
	return u.Query().Get("loc")
}
