// Package render describes the map surface the projector draws on and
// provides Scene, an in-memory surface that the web page mirrors.
package render

// LatLng is a WGS84 coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type IconKind string

const (
	StopIcon IconKind = "stop"
	UserIcon IconKind = "user"
)

// Icon is the marker glyph. Color is a CSS color.
type Icon struct {
	Kind  IconKind `json:"kind"`
	Color string   `json:"color"`
}

// Marker is a point marker keyed by stop id.
type Marker struct {
	ID       string
	Position LatLng
	Icon     Icon
}

// Polyline is a styled line drawn on the map.
type Polyline struct {
	Points  []LatLng
	Color   string
	Weight  int
	Opacity float64
	Offset  int
	Label   string
}

// PolylineHandle identifies a drawn polyline so it can be removed later.
type PolylineHandle int

// View is the viewport center and zoom.
type View struct {
	Center LatLng `json:"center"`
	Zoom   int    `json:"zoom"`
}

// Surface is the mapping collaborator. Markers are never destroyed through
// this interface: hiding a stop removes it from the cluster layer only.
type Surface interface {
	PlaceMarker(m Marker, onClick func())
	SetMarkerIcon(id string, icon Icon)
	SetPopup(id string, content string)

	DrawPolyline(p Polyline) PolylineHandle
	RemovePolyline(h PolylineHandle)

	ClusterAdd(id string)
	ClusterRemove(id string)
	ClusterHas(id string) bool
	ClusterClear()
	SetClustering(enabled bool)

	SetView(v View)
	PlaceUserMarker(at LatLng)
	SetCloseControl(visible bool)
	Notify(message string)
}
