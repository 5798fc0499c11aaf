package app

import (
	"log/slog"
	"time"

	"transitmap.onebusaway.org/internal/appconf"
	"transitmap.onebusaway.org/internal/calendar"
	"transitmap.onebusaway.org/internal/dataset"
	"transitmap.onebusaway.org/internal/metrics"
	"transitmap.onebusaway.org/internal/projector"
	"transitmap.onebusaway.org/internal/render"
	"transitmap.onebusaway.org/internal/schedule"
	"transitmap.onebusaway.org/internal/session"
)

// Application holds the dependencies for our HTTP handlers, helpers,
// and middleware. The dataset and index are read-only after startup; all
// per-viewer state lives in Sessions.
type Application struct {
	Config   appconf.Config
	Logger   *slog.Logger
	Dataset  *dataset.Dataset
	Index    *schedule.Index
	Metrics  *metrics.Collector
	Sessions *session.Registry[*MapSession]

	// Now is the wall clock used for the default date and time of new
	// sessions.
	Now func() time.Time
}

// MapSession is one viewer's map: the scene the page mirrors and the
// controller driving it.
type MapSession struct {
	ID         string
	Scene      *render.Scene
	Controller *projector.Controller
}

// New builds the application around an already loaded dataset and starts the
// session registry.
func New(cfg appconf.Config, logger *slog.Logger, ds *dataset.Dataset, collector *metrics.Collector) *Application {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}

	app := &Application{
		Config:  cfg,
		Logger:  logger,
		Dataset: ds,
		Index:   schedule.NewIndex(ds),
		Metrics: collector,
		Now:     time.Now,
	}
	app.Sessions = session.NewRegistry(app.newMapSession, cfg.SessionTTL, logger)
	return app
}

// ControllerConfig maps the configured map settings onto the projector.
func (app *Application) ControllerConfig() projector.Config {
	m := app.Config.Map
	return projector.Config{
		Palette:     m.Palette,
		Line:        m.Line,
		InitialView: app.InitialView(),
		LocateZoom:  m.LocateZoom,
	}
}

func (app *Application) InitialView() render.View {
	m := app.Config.Map
	return render.View{
		Center: render.LatLng{Lat: m.CenterLat, Lon: m.CenterLon},
		Zoom:   m.InitialZoom,
	}
}

// newMapSession starts a session on today's date and the current time, with
// every stop placed and clustered.
func (app *Application) newMapSession(id string) (*MapSession, error) {
	now := app.Now()
	scene := render.NewScene(app.InitialView())
	state := session.NewState(calendar.FormatDate(now), calendar.FormatClock(now))

	controller := projector.NewController(app.Index, scene, state, app.ControllerConfig(),
		projector.WithLogger(app.Logger.With(slog.String("session_id", id))),
		projector.WithObserver(app.Metrics))
	controller.Init()
	controller.Bind(scene)

	return &MapSession{ID: id, Scene: scene, Controller: controller}, nil
}

// Close stops the session registry.
func (app *Application) Close() {
	app.Sessions.Close()
}
