package portal

import "github.com/example/conference-portal/internal/identity"

// Conference branding shown on the landing page.
const (
	ConferenceTitle    = "NMTE2A Conference"
	ConferenceSubtitle = "User Portal"
	BrochureURL        = "https://drive.google.com/drive/folders/1lBDxUFDHklpL7Ez2OVkSDn8zpr8Pu0pv?usp=sharing"
)

// Link is one entry point listed on the landing page. Target is either a
// portal path or an external URL.
type Link struct {
	Label  string
	Target string
}

// HomeView is the landing page.
type HomeView struct {
	Title    string
	Subtitle string
	// Primary is the login entry for guests and the dashboard for speakers.
	Primary  Link
	Greeting string
	Navigate []Link
}

// Home builds the landing page for viewer.
func Home(viewer identity.Viewer) HomeView {
	view := HomeView{
		Title:    ConferenceTitle,
		Subtitle: ConferenceSubtitle,
		Primary:  Link{Label: "Speaker Login", Target: "/login"},
		Navigate: []Link{
			{Label: "Conference Brochure", Target: BrochureURL},
			{Label: "Event Schedule", Target: "/schedule"},
			{Label: "Academic Block Map", Target: "/acads-map"},
			{Label: "Campus Map", Target: "/campus-map"},
		},
	}
	if viewer.Authenticated() {
		view.Primary = Link{Label: "My Dashboard", Target: "/dashboard"}
		view.Greeting = "Signed in as " + viewer.Speaker.Name
	}
	return view
}
