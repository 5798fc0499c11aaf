package models

// ShapeEntry is the geometry of one shape. Points encodes the whole shape as
// a single polyline; Segments splits it wherever the shape retraces a stretch
// it already covered, each piece encoded on its own.
type ShapeEntry struct {
	Points   string   `json:"points"`
	Length   int      `json:"length"`
	Levels   string   `json:"levels"`
	Segments []string `json:"segments"`
}
