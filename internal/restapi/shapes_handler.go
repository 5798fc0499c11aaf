package restapi

import (
	"net/http"

	"github.com/twpayne/go-polyline"

	"transitmap.onebusaway.org/internal/dataset"
	"transitmap.onebusaway.org/internal/models"
	"transitmap.onebusaway.org/internal/utils"
)

func (api *RestAPI) shapesHandler(w http.ResponseWriter, r *http.Request) {
	shapeID := utils.ExtractIDFromParams(r, "id")
	if err := utils.ValidateID(shapeID); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"id": {err.Error()}})
		return
	}

	shape := api.Dataset.Shape(shapeID)
	if shape == nil || len(shape.Points) == 0 {
		api.sendNotFound(w, r)
		return
	}

	points := dedupPoints(shape.Points)
	encodedPoints := encodePoints(points)
	shapeEntry := models.ShapeEntry{
		Points:   encodedPoints,
		Length:   len(encodedPoints),
		Levels:   "",
		Segments: encodeSegments(points),
	}

	api.sendResponse(w, r, models.NewEntryResponse(shapeEntry, models.NewEmptyReferences()))
}

// dedupPoints drops consecutive repeats of the same point.
func dedupPoints(points []dataset.Point) []dataset.Point {
	out := make([]dataset.Point, 0, len(points))
	for i, p := range points {
		if i > 0 && points[i-1] == p {
			continue
		}
		out = append(out, p)
	}
	return out
}

func encodePoints(points []dataset.Point) string {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Lat, p.Lon}
	}
	return string(polyline.EncodeCoords(coords))
}

// edgeKey identifies a segment regardless of the direction it is walked.
type edgeKey [2]dataset.Point

func newEdgeKey(a, b dataset.Point) edgeKey {
	if b.Lat < a.Lat || (b.Lat == a.Lat && b.Lon < a.Lon) {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// encodeSegments encodes points as independent polylines, starting a new one
// whenever the shape retraces an edge it already covered. Retraced edges are
// not drawn twice.
func encodeSegments(points []dataset.Point) []string {
	segments := []string{}
	var current []dataset.Point
	seen := make(map[edgeKey]bool)

	flush := func() {
		if len(current) > 1 {
			segments = append(segments, encodePoints(current))
		}
	}

	for i, p := range points {
		if i == 0 {
			current = append(current, p)
			continue
		}
		key := newEdgeKey(points[i-1], p)
		if seen[key] {
			flush()
			current = []dataset.Point{p}
			continue
		}
		seen[key] = true
		current = append(current, p)
	}
	flush()
	return segments
}
