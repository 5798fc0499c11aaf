package webui

import (
	"html/template"
	"net/http"

	"github.com/davecgh/go-spew/spew"
)

type debugData struct {
	Title string
	Pre   string
}

var debugTemplate = template.Must(template.ParseFS(templateFS, "debug_index.html"))

func writeDebugData(w http.ResponseWriter, title string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	err := debugTemplate.Execute(w, debugData{
		Title: title,
		Pre:   spew.Sdump(data),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	dataType := r.URL.Query().Get("dataType")

	var data interface{}
	var title string

	ds := webUI.Dataset

	switch dataType {
	case "counts":
		data = ds.Counts()
		title = "Dataset - Counts"
	case "stops":
		data = collect(ds.StopIDs(), ds.Stop)
		title = "Dataset - Stops"
	case "routes":
		data = collect(ds.RouteIDs(), ds.Route)
		title = "Dataset - Routes"
	case "services":
		data = collect(ds.ServiceIDs(), ds.Service)
		title = "Dataset - Services"
	case "trips":
		data = ds.Trips()
		title = "Dataset - Trips"
	case "shapes":
		data = collect(ds.ShapeIDs(), ds.Shape)
		title = "Dataset - Shapes"
	case "config":
		data = webUI.Config
		title = "Server - Configuration"
	default:
		data = map[string]string{
			"error": "Please use one of the following: counts, stops, routes, services, trips, shapes, config.",
		}
		title = "Choose a data type"
	}

	writeDebugData(w, title, data)
}

// collect looks up ids in dataset order.
func collect[T any](ids []string, lookup func(string) *T) []*T {
	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		out = append(out, lookup(id))
	}
	return out
}
