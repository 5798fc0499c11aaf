// Package projector derives what the map shows for a focused route and
// drives the map surface between the overview and route-focused states.
package projector

import (
	"transitmap.onebusaway.org/internal/dataset"
	"transitmap.onebusaway.org/internal/render"
	"transitmap.onebusaway.org/internal/schedule"
)

// Palette holds the route line colors and the stop marker colors.
type Palette struct {
	Direction0 string `yaml:"direction0" json:"direction0" validate:"required,hexcolor"`
	Direction1 string `yaml:"direction1" json:"direction1" validate:"required,hexcolor"`
	Both       string `yaml:"both" json:"both" validate:"required,hexcolor"`
	Default    string `yaml:"default" json:"default" validate:"required,hexcolor"`
}

func DefaultPalette() Palette {
	return Palette{
		Direction0: "#c84949",
		Direction1: "#2b70cb",
		Both:       "#9c27b0",
		Default:    "#666666",
	}
}

// LineColor is the polyline color of a direction.
func (p Palette) LineColor(d dataset.Direction) string {
	if d == dataset.Outbound {
		return p.Direction0
	}
	return p.Direction1
}

// StopColor is the marker color of a stop served by the given directions.
func (p Palette) StopColor(set dataset.DirectionSet) string {
	switch {
	case set.Both():
		return p.Both
	case set.Has(dataset.Outbound):
		return p.Direction0
	case set.Has(dataset.Inbound):
		return p.Direction1
	default:
		return p.Default
	}
}

// ShapeOverlay is one drawable direction of the focused route.
type ShapeOverlay struct {
	Direction dataset.Direction
	ShapeID   string
	TripID    string
	Color     string
	Points    []render.LatLng
}

// Projection is the visible subset of the map for a focused route.
type Projection struct {
	Shapes         []ShapeOverlay
	LineStops      []string
	StopDirections map[string]dataset.DirectionSet
}

// InLine reports whether stopID belongs to the projected line.
func (p Projection) InLine(stopID string) bool {
	_, ok := p.StopDirections[stopID]
	return ok
}

// Project walks the exemplar trip of each direction in ascending direction
// order. A trip whose shape is missing draws nothing but still contributes
// its stops.
func Project(ds *dataset.Dataset, groups schedule.DirectionGroups, palette Palette) Projection {
	proj := Projection{StopDirections: make(map[string]dataset.DirectionSet)}

	for _, d := range groups.Directions() {
		trip := groups.Trip(d)
		if shape := ds.Shape(trip.ShapeID); shape != nil && len(shape.Points) > 0 {
			points := make([]render.LatLng, 0, len(shape.Points))
			for _, pt := range shape.Points {
				points = append(points, render.LatLng{Lat: pt.Lat, Lon: pt.Lon})
			}
			proj.Shapes = append(proj.Shapes, ShapeOverlay{
				Direction: d,
				ShapeID:   shape.ID,
				TripID:    trip.ID,
				Color:     palette.LineColor(d),
				Points:    points,
			})
		}

		for _, stopID := range trip.Stops {
			set, seen := proj.StopDirections[stopID]
			if !seen {
				proj.LineStops = append(proj.LineStops, stopID)
			}
			proj.StopDirections[stopID] = set.Add(d)
		}
	}
	return proj
}
