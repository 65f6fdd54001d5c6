package portal

import (
	"context"
	"log/slog"

	"github.com/example/conference-portal/internal/campus"
)

// Map names served by the portal.
const (
	CampusMapName = "campus"
	AcadsMapName  = "acads"
)

// MapSource is the slice of the remote client used by the map views.
type MapSource interface {
	Map(ctx context.Context, name string) (campus.Map, error)
}

// MapView is a map with its current camera position.
type MapView struct {
	Map     campus.Map
	View    campus.View
	Focused string
	Notices []Notice
}

// Maps renders the campus and academic maps. When the server cannot be
// reached the bundled catalog is shown instead.
type Maps struct {
	source   MapSource
	fallback campus.Catalog
	logger   *slog.Logger
}

// NewMaps wires the map views.
func NewMaps(source MapSource, fallback campus.Catalog, logger *slog.Logger) *Maps {
	if logger == nil {
		logger = slog.Default()
	}
	return &Maps{source: source, fallback: fallback, logger: logger}
}

// Open shows the named map, focused on a location when focus is non-empty.
func (m *Maps) Open(ctx context.Context, name, focus string) (MapView, error) {
	var notices []Notice
	mp, err := m.source.Map(ctx, name)
	if err != nil {
		m.logger.WarnContext(ctx, "map fetch failed, using bundled catalog", "map", name, "error", err)
		mp, err = m.fallback.Lookup(name)
		if err != nil {
			return MapView{}, err
		}
		notices = append(notices, info("Showing bundled map data"))
	}

	view := MapView{Map: mp, View: mp.Initial(), Notices: notices}
	if focus == "" {
		return view, nil
	}
	if v, ok := mp.Focus(focus); ok {
		view.View = v
		view.Focused = focus
		return view, nil
	}
	view.Notices = append(view.Notices, Notice{Level: LevelWarning, Text: "Unknown location: " + focus})
	return view, nil
}
