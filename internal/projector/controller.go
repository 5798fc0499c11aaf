package projector

import (
	"fmt"
	"log/slog"

	"transitmap.onebusaway.org/internal/dataset"
	"transitmap.onebusaway.org/internal/logging"
	"transitmap.onebusaway.org/internal/popup"
	"transitmap.onebusaway.org/internal/render"
	"transitmap.onebusaway.org/internal/schedule"
	"transitmap.onebusaway.org/internal/session"
)

// LineStyle is the stroke used for route shapes.
type LineStyle struct {
	Weight  int     `yaml:"weight" json:"weight" validate:"gte=1"`
	Opacity float64 `yaml:"opacity" json:"opacity" validate:"gt=0,lte=1"`
	Offset  int     `yaml:"offset" json:"offset" validate:"gte=0"`
}

func DefaultLineStyle() LineStyle {
	return LineStyle{Weight: 4, Opacity: 0.85, Offset: 6}
}

// Config is the map behaviour shared by every controller.
type Config struct {
	Palette     Palette
	Line        LineStyle
	InitialView render.View
	LocateZoom  int
}

// Popup outcomes reported to the Observer.
const (
	OutcomeRendered    = "rendered"
	OutcomeNoService   = "no_service"
	OutcomeUnknownStop = "unknown_stop"
	OutcomeFailed      = "failed"
)

// Observer is notified of user-visible transitions.
type Observer interface {
	PopupOpened(outcome string)
	RouteSelected(routeID string)
}

type nopObserver struct{}

func (nopObserver) PopupOpened(string)   {}
func (nopObserver) RouteSelected(string) {}

type Option func(*Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

type composeFunc func(stop *dataset.Stop, choices []schedule.RouteChoice, selected string) (string, error)

// Controller moves one session's map between the overview and a focused
// route. It is not safe for concurrent use.
type Controller struct {
	ds       *dataset.Dataset
	index    *schedule.Index
	state    *session.State
	surface  render.Surface
	cfg      Config
	logger   *slog.Logger
	observer Observer
	compose  composeFunc
}

func NewController(index *schedule.Index, surface render.Surface, state *session.State, cfg Config, opts ...Option) *Controller {
	c := &Controller{
		ds:       index.Dataset(),
		index:    index,
		state:    state,
		surface:  surface,
		cfg:      cfg,
		logger:   slog.Default(),
		observer: nopObserver{},
		compose:  popup.Compose,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) State() *session.State { return c.state }

// Init places every stop marker with the default icon inside the cluster.
func (c *Controller) Init() {
	for _, id := range c.ds.StopIDs() {
		stop := c.ds.Stop(id)
		stopID := id
		c.surface.PlaceMarker(render.Marker{
			ID:       stopID,
			Position: render.LatLng{Lat: stop.Lat, Lon: stop.Lon},
			Icon:     c.stopIcon(c.cfg.Palette.Default),
		}, func() { c.OpenPopup(stopID) })
		c.surface.ClusterAdd(stopID)
	}
	c.surface.SetClustering(true)
	c.surface.SetCloseControl(false)
	c.surface.SetView(c.cfg.InitialView)
}

// Bind subscribes the controller to the user triggers.
func (c *Controller) Bind(events render.Events) {
	events.On(render.StopClicked, func(e render.Event) { c.OpenPopup(e.StopID) })
	events.On(render.RouteChosen, func(e render.Event) { c.SelectRoute(e.StopID, e.RouteID) })
	events.On(render.CloseLine, func(render.Event) { c.CloseLine() })
	events.On(render.ResetView, func(render.Event) { c.ResetView() })
	events.On(render.Located, func(e render.Event) { c.Locate(e.At) })
	events.On(render.LocateFailed, func(e render.Event) { c.LocateFailed(e.Message) })
	events.On(render.DateTimeChanged, func(e render.Event) { c.SetDateTime(e.Date, e.Clock) })
}

// SelectRoute focuses routeID as seen from stopID. Running it twice with the
// same arguments leaves the surface unchanged.
func (c *Controller) SelectRoute(stopID, routeID string) {
	c.state.ClearShapes(c.surface)
	c.state.Select(stopID, routeID)

	date, clock := c.state.DateTime()
	trips := c.index.ActiveTripsForRoute(routeID, date, clock)
	proj := Project(c.ds, schedule.GroupByDirection(trips), c.cfg.Palette)

	for _, overlay := range proj.Shapes {
		c.state.AddShape(c.surface.DrawPolyline(render.Polyline{
			Points:  overlay.Points,
			Color:   overlay.Color,
			Weight:  c.cfg.Line.Weight,
			Opacity: c.cfg.Line.Opacity,
			Offset:  c.cfg.Line.Offset,
			Label:   fmt.Sprintf("%s/%s", routeID, overlay.Direction),
		}))
	}

	c.state.SetStopDirections(proj.StopDirections)
	for _, id := range c.ds.StopIDs() {
		if proj.InLine(id) {
			if !c.surface.ClusterHas(id) {
				c.surface.ClusterAdd(id)
			}
			c.surface.SetMarkerIcon(id, c.stopIcon(c.cfg.Palette.StopColor(c.state.StopDirections(id))))
		} else if c.surface.ClusterHas(id) {
			c.surface.ClusterRemove(id)
		}
	}

	c.surface.SetClustering(false)
	c.surface.SetCloseControl(true)
	c.observer.RouteSelected(routeID)

	c.logger.Debug("route selected",
		slog.String("stop_id", stopID),
		slog.String("route_id", routeID),
		slog.Int("trips", len(trips)),
		slog.Int("shapes", len(proj.Shapes)),
		slog.Int("line_stops", len(proj.LineStops)))
}

// CloseLine returns to the overview with every marker back in the cluster.
func (c *Controller) CloseLine() {
	c.surface.SetClustering(true)
	c.state.ClearShapes(c.surface)
	c.surface.ClusterClear()
	for _, id := range c.ds.StopIDs() {
		c.surface.SetMarkerIcon(id, c.stopIcon(c.cfg.Palette.Default))
		c.surface.ClusterAdd(id)
	}
	c.state.Reset()
	c.surface.SetCloseControl(false)
}

// ResetView closes the focused line and recenters the map.
func (c *Controller) ResetView() {
	c.CloseLine()
	c.surface.SetView(c.cfg.InitialView)
}

// OpenPopup composes and shows the popup of stopID for the session's date and
// time. When none of the offered routes is already focused for this stop, the
// preselected one is focused as well. Failures never escape: they produce a
// placeholder.
func (c *Controller) OpenPopup(stopID string) (content string) {
	defer func() {
		if r := recover(); r != nil {
			content = c.popupFailed(stopID, fmt.Errorf("panic: %v", r))
		}
	}()

	stop := c.ds.Stop(stopID)
	if stop == nil {
		c.surface.SetPopup(stopID, popup.Unknown())
		c.observer.PopupOpened(OutcomeUnknownStop)
		return popup.Unknown()
	}

	date, clock := c.state.DateTime()
	choices := c.index.RoutesForStop(stopID, date, clock)
	if len(choices) == 0 {
		html, err := popup.NoService(stop)
		if err != nil {
			return c.popupFailed(stopID, err)
		}
		c.surface.SetPopup(stopID, html)
		c.observer.PopupOpened(OutcomeNoService)
		return html
	}

	selected, current := choices[0].RouteID, false
	for _, choice := range choices {
		if c.state.IsCurrent(stopID, choice.RouteID) {
			selected, current = choice.RouteID, true
			break
		}
	}

	html, err := c.compose(stop, choices, selected)
	if err != nil {
		return c.popupFailed(stopID, err)
	}
	c.surface.SetPopup(stopID, html)
	c.observer.PopupOpened(OutcomeRendered)

	if !current {
		c.SelectRoute(stopID, selected)
	}
	return html
}

func (c *Controller) popupFailed(stopID string, err error) string {
	logging.LogError(c.logger, "failed to compose popup", err,
		slog.String("stop_id", stopID),
		slog.String("component", "projector"))
	c.surface.SetPopup(stopID, popup.Failed())
	c.observer.PopupOpened(OutcomeFailed)
	return popup.Failed()
}

// SetDateTime changes the service date and clock used by later popups and
// route selections. The focused line is not redrawn.
func (c *Controller) SetDateTime(date, clock string) {
	c.state.SetDateTime(date, clock)
}

// Locate shows the viewer's position and centers the map on it.
func (c *Controller) Locate(at render.LatLng) {
	c.surface.PlaceUserMarker(at)
	c.surface.SetView(render.View{Center: at, Zoom: c.cfg.LocateZoom})
}

// LocateFailed reports a geolocation error without touching the map state.
func (c *Controller) LocateFailed(message string) {
	c.surface.Notify("Geolocation error: " + message)
}

func (c *Controller) stopIcon(color string) render.Icon {
	return render.Icon{Kind: render.StopIcon, Color: color}
}
