// Package campus holds the campus and academic area maps shown to attendees.
package campus

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed maps.yaml
var defaultCatalog []byte

// LatLng is a [latitude, longitude] pair.
type LatLng [2]float64

// Location is a labelled marker.
type Location struct {
	Label     string `yaml:"label" json:"label"`
	Position  LatLng `yaml:"position" json:"position"`
	MenuImage string `yaml:"menu_image,omitempty" json:"menu_image,omitempty"`
}

// Category groups markers in the map sidebar.
type Category struct {
	ID        string     `yaml:"id" json:"id"`
	Name      string     `yaml:"name" json:"name"`
	Locations []Location `yaml:"locations" json:"locations"`
}

// Map is one navigable map view.
type Map struct {
	Name       string     `yaml:"name" json:"name"`
	Title      string     `yaml:"title" json:"title"`
	Center     LatLng     `yaml:"center" json:"center"`
	Zoom       int        `yaml:"zoom" json:"zoom"`
	FocusZoom  int        `yaml:"focus_zoom" json:"focus_zoom"`
	Categories []Category `yaml:"categories" json:"categories"`
}

// Summary is the listing form of a Map.
type Summary struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// Catalog is the full set of maps.
type Catalog struct {
	Maps []Map `yaml:"maps"`
}

// Sentinel errors.
var (
	ErrUnknownMap     = errors.New("campus: unknown map")
	ErrInvalidCatalog = errors.New("campus: invalid catalog")
)

// Default returns the catalog compiled into the binary.
func Default() Catalog {
	catalog, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("campus: embedded catalog: %v", err))
	}
	return catalog
}

// LoadFile reads and validates a catalog from disk.
func LoadFile(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("campus: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog and checks it.
func Parse(data []byte) (Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return Catalog{}, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := catalog.validate(); err != nil {
		return Catalog{}, err
	}
	for i := range catalog.Maps {
		if catalog.Maps[i].FocusZoom == 0 {
			catalog.Maps[i].FocusZoom = catalog.Maps[i].Zoom
		}
	}
	return catalog, nil
}

func (c Catalog) validate() error {
	if len(c.Maps) == 0 {
		return fmt.Errorf("%w: no maps defined", ErrInvalidCatalog)
	}
	seen := make(map[string]struct{}, len(c.Maps))
	var problems []string
	for i, m := range c.Maps {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			problems = append(problems, fmt.Sprintf("maps[%d]: name is required", i))
			continue
		}
		if _, ok := seen[name]; ok {
			problems = append(problems, fmt.Sprintf("maps[%d]: duplicate name %q", i, name))
		}
		seen[name] = struct{}{}
		if !m.Center.valid() {
			problems = append(problems, fmt.Sprintf("%s: center out of range", name))
		}
		if m.Zoom <= 0 {
			problems = append(problems, fmt.Sprintf("%s: zoom must be positive", name))
		}
		for _, cat := range m.Categories {
			for _, loc := range cat.Locations {
				if strings.TrimSpace(loc.Label) == "" {
					problems = append(problems, fmt.Sprintf("%s/%s: location label is required", name, cat.ID))
				}
				if !loc.Position.valid() {
					problems = append(problems, fmt.Sprintf("%s/%s/%s: position out of range", name, cat.ID, loc.Label))
				}
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(problems, "; "))
	}
	return nil
}

func (p LatLng) valid() bool {
	return p[0] >= -90 && p[0] <= 90 && p[1] >= -180 && p[1] <= 180
}

// Lookup finds a map by name.
func (c Catalog) Lookup(name string) (Map, error) {
	for _, m := range c.Maps {
		if m.Name == name {
			return m, nil
		}
	}
	return Map{}, fmt.Errorf("%w: %q", ErrUnknownMap, name)
}

// Summaries lists the maps in catalog order.
func (c Catalog) Summaries() []Summary {
	out := make([]Summary, 0, len(c.Maps))
	for _, m := range c.Maps {
		out = append(out, Summary{Name: m.Name, Title: m.Title})
	}
	return out
}

// View is the camera position of a map.
type View struct {
	Center LatLng
	Zoom   int
}

// Initial returns the view a map opens with.
func (m Map) Initial() View {
	return View{Center: m.Center, Zoom: m.Zoom}
}

// Focus returns the view after selecting the labelled location.
func (m Map) Focus(label string) (View, bool) {
	for _, cat := range m.Categories {
		for _, loc := range cat.Locations {
			if strings.EqualFold(loc.Label, label) {
				return View{Center: loc.Position, Zoom: m.FocusZoom}, true
			}
		}
	}
	return View{}, false
}
