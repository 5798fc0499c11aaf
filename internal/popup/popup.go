// Package popup composes the HTML shown when a stop marker is opened.
package popup

import (
	"bytes"
	"html/template"

	"transitmap.onebusaway.org/internal/dataset"
	"transitmap.onebusaway.org/internal/schedule"
)

const (
	unknownStop  = "<i>Unknown stop</i>"
	loadFailed   = "<i>Error loading content</i>"
	noActiveLine = "No active lines today"
)

var routeForm = template.Must(template.New("popup").Parse(
	`<b>{{.Stop.Name}}</b><br>` +
		`{{if .Choices}}<form class="popup-form">` +
		`{{range .Choices}}<label>` +
		`<input type="radio" name="routeChoice-{{$.Stop.ID}}" value="{{.RouteID}}" data-stop="{{$.Stop.ID}}" data-route="{{.RouteID}}"{{if eq .RouteID $.Selected}} checked{{end}}>` +
		` Line {{.Label}}</label><br>` +
		`{{end}}</form>` +
		`{{else}}<i>{{.Empty}}</i>{{end}}`,
))

type formData struct {
	Stop     *dataset.Stop
	Choices  []schedule.RouteChoice
	Selected string
	Empty    string
}

// Compose renders the route choice form for stop. The choice whose route id
// equals selected is checked. With no choices the form is replaced by the
// "no active lines" notice.
func Compose(stop *dataset.Stop, choices []schedule.RouteChoice, selected string) (string, error) {
	var buf bytes.Buffer
	err := routeForm.Execute(&buf, formData{
		Stop:     stop,
		Choices:  choices,
		Selected: selected,
		Empty:    noActiveLine,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// NoService is the popup of a stop without active routes.
func NoService(stop *dataset.Stop) (string, error) {
	return Compose(stop, nil, "")
}

func Unknown() string { return unknownStop }

func Failed() string { return loadFailed }
