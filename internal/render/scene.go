package render

import (
	"github.com/twpayne/go-polyline"
)

type sceneMarker struct {
	marker  Marker
	onClick func()
}

// Popup is the popup currently open on the scene.
type Popup struct {
	StopID  string `json:"stopId"`
	Content string `json:"content"`
}

// Scene is an in-memory Surface. It is not safe for concurrent use; callers
// serialize access (see session.Registry).
type Scene struct {
	*Bus

	markers     map[string]*sceneMarker
	markerOrder []string
	cluster     map[string]bool
	clustering  bool

	polylines  map[PolylineHandle]Polyline
	lineOrder  []PolylineHandle
	nextHandle PolylineHandle

	view         View
	user         *LatLng
	closeControl bool
	popup        *Popup
	notice       string
}

func NewScene(initial View) *Scene {
	return &Scene{
		Bus:        NewBus(),
		markers:    make(map[string]*sceneMarker),
		cluster:    make(map[string]bool),
		clustering: true,
		polylines:  make(map[PolylineHandle]Polyline),
		view:       initial,
	}
}

func (s *Scene) PlaceMarker(m Marker, onClick func()) {
	if existing, ok := s.markers[m.ID]; ok {
		existing.marker = m
		if onClick != nil {
			existing.onClick = onClick
		}
		return
	}
	s.markers[m.ID] = &sceneMarker{marker: m, onClick: onClick}
	s.markerOrder = append(s.markerOrder, m.ID)
}

func (s *Scene) SetMarkerIcon(id string, icon Icon) {
	if m, ok := s.markers[id]; ok {
		m.marker.Icon = icon
	}
}

func (s *Scene) SetPopup(id string, content string) {
	s.popup = &Popup{StopID: id, Content: content}
}

// Click invokes the click handler of a marker. It reports false for unknown
// markers.
func (s *Scene) Click(id string) bool {
	m, ok := s.markers[id]
	if !ok || m.onClick == nil {
		return false
	}
	m.onClick()
	return true
}

func (s *Scene) DrawPolyline(p Polyline) PolylineHandle {
	s.nextHandle++
	h := s.nextHandle
	s.polylines[h] = p
	s.lineOrder = append(s.lineOrder, h)
	return h
}

func (s *Scene) RemovePolyline(h PolylineHandle) {
	if _, ok := s.polylines[h]; !ok {
		return
	}
	delete(s.polylines, h)
	for i, existing := range s.lineOrder {
		if existing == h {
			s.lineOrder = append(s.lineOrder[:i], s.lineOrder[i+1:]...)
			break
		}
	}
}

func (s *Scene) ClusterAdd(id string) {
	if _, ok := s.markers[id]; ok {
		s.cluster[id] = true
	}
}

func (s *Scene) ClusterRemove(id string)    { delete(s.cluster, id) }
func (s *Scene) ClusterHas(id string) bool  { return s.cluster[id] }
func (s *Scene) ClusterClear()              { s.cluster = make(map[string]bool) }
func (s *Scene) SetClustering(enabled bool) { s.clustering = enabled }
func (s *Scene) SetView(v View)             { s.view = v }
func (s *Scene) SetCloseControl(visible bool) {
	s.closeControl = visible
}

func (s *Scene) PlaceUserMarker(at LatLng) {
	s.user = &at
}

func (s *Scene) Notify(message string) {
	s.notice = message
}

// ClearNotice drops the pending notice once it has been delivered.
func (s *Scene) ClearNotice() {
	s.notice = ""
}

// MarkerView is a marker as seen by the page.
type MarkerView struct {
	ID        string `json:"id"`
	Position  LatLng `json:"position"`
	Icon      Icon   `json:"icon"`
	Clustered bool   `json:"clustered"`
}

// PolylineView is a drawn line with its points in encoded polyline format.
type PolylineView struct {
	Handle  PolylineHandle `json:"handle"`
	Label   string         `json:"label,omitempty"`
	Color   string         `json:"color"`
	Weight  int            `json:"weight"`
	Opacity float64        `json:"opacity"`
	Offset  int            `json:"offset"`
	Points  string         `json:"points"`
}

// Snapshot is the complete render state of a scene.
type Snapshot struct {
	Markers          []MarkerView   `json:"markers"`
	Clustering       bool           `json:"clustering"`
	Polylines        []PolylineView `json:"polylines"`
	View             View           `json:"view"`
	UserLocation     *LatLng        `json:"userLocation"`
	CloseLineVisible bool           `json:"closeLineVisible"`
	Popup            *Popup         `json:"popup,omitempty"`
	Notice           string         `json:"notice,omitempty"`
}

func (s *Scene) Snapshot() Snapshot {
	snap := Snapshot{
		Markers:          make([]MarkerView, 0, len(s.markerOrder)),
		Clustering:       s.clustering,
		Polylines:        make([]PolylineView, 0, len(s.lineOrder)),
		View:             s.view,
		CloseLineVisible: s.closeControl,
		Notice:           s.notice,
	}
	for _, id := range s.markerOrder {
		m := s.markers[id].marker
		snap.Markers = append(snap.Markers, MarkerView{
			ID:        id,
			Position:  m.Position,
			Icon:      m.Icon,
			Clustered: s.cluster[id],
		})
	}
	for _, h := range s.lineOrder {
		p := s.polylines[h]
		snap.Polylines = append(snap.Polylines, PolylineView{
			Handle:  h,
			Label:   p.Label,
			Color:   p.Color,
			Weight:  p.Weight,
			Opacity: p.Opacity,
			Offset:  p.Offset,
			Points:  EncodePoints(p.Points),
		})
	}
	if s.user != nil {
		at := *s.user
		snap.UserLocation = &at
	}
	if s.popup != nil {
		popup := *s.popup
		snap.Popup = &popup
	}
	return snap
}

// EncodePoints encodes coordinates with the Google polyline algorithm.
func EncodePoints(points []LatLng) string {
	coords := make([][]float64, 0, len(points))
	for _, p := range points {
		coords = append(coords, []float64{p.Lat, p.Lon})
	}
	return string(polyline.EncodeCoords(coords))
}
