// Package session holds the per-viewer map state and serializes every
// mutation of it through a single goroutine.
package session

import (
	"transitmap.onebusaway.org/internal/dataset"
	"transitmap.onebusaway.org/internal/render"
)

// Selection is the stop/route pair currently focused on the map.
type Selection struct {
	StopID  string `json:"stopId"`
	RouteID string `json:"routeId"`
}

// State is the session bookkeeping for one map viewer. It is mutated only
// from the registry goroutine.
type State struct {
	selection      Selection
	hasSelection   bool
	lineMode       bool
	shapes         []render.PolylineHandle
	stopDirections map[string]dataset.DirectionSet
	date           string
	clock          string
}

func NewState(date, clock string) *State {
	return &State{date: date, clock: clock}
}

// Select records the focused stop/route pair and enters line mode.
func (s *State) Select(stopID, routeID string) {
	s.selection = Selection{StopID: stopID, RouteID: routeID}
	s.hasSelection = true
	s.lineMode = true
}

func (s *State) Selection() (Selection, bool) {
	return s.selection, s.hasSelection
}

// IsCurrent reports whether routeID is the focused route for stopID.
func (s *State) IsCurrent(stopID, routeID string) bool {
	return s.hasSelection && s.selection.StopID == stopID && s.selection.RouteID == routeID
}

func (s *State) LineMode() bool { return s.lineMode }

func (s *State) AddShape(h render.PolylineHandle) {
	s.shapes = append(s.shapes, h)
}

func (s *State) Shapes() []render.PolylineHandle { return s.shapes }

// SetStopDirections replaces the per-stop direction membership of the
// focused route.
func (s *State) SetStopDirections(directions map[string]dataset.DirectionSet) {
	s.stopDirections = directions
}

func (s *State) StopDirections(stopID string) dataset.DirectionSet {
	return s.stopDirections[stopID]
}

func (s *State) SetDateTime(date, clock string) {
	s.date = date
	s.clock = clock
}

// DateTime returns the service date (YYYYMMDD) and clock (HH:MM) chosen by
// the viewer.
func (s *State) DateTime() (date, clock string) {
	return s.date, s.clock
}

// Reset clears the selection and the line mode flag. Drawn shapes are left
// to ClearShapes.
func (s *State) Reset() {
	s.selection = Selection{}
	s.hasSelection = false
	s.lineMode = false
	s.stopDirections = nil
}

// ClearShapes removes every drawn shape from surface and forgets the handles.
func (s *State) ClearShapes(surface render.Surface) {
	for _, h := range s.shapes {
		surface.RemovePolyline(h)
	}
	s.shapes = s.shapes[:0]
}
