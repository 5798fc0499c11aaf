package restapi

import (
	"net/http"

	"transitmap.onebusaway.org/internal/app"
	"transitmap.onebusaway.org/internal/models"
	"transitmap.onebusaway.org/internal/render"
	"transitmap.onebusaway.org/internal/utils"
)

// sessionAction runs act on the session named in the path, then replies with
// the session's state and scene. Any notice raised by act is delivered once.
func (api *RestAPI) sessionAction(w http.ResponseWriter, r *http.Request, act func(s *app.MapSession) error) {
	id := utils.ExtractIDFromParams(r, "session")

	var entry models.SessionEntry
	err := api.Sessions.Do(r.Context(), id, func(s *app.MapSession) error {
		if act != nil {
			if err := act(s); err != nil {
				return err
			}
		}
		entry = models.NewSessionEntry(s.ID, s.Controller.State(), s.Scene.Snapshot())
		s.Scene.ClearNotice()
		return nil
	})
	if err != nil {
		api.sessionErrorResponse(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(entry, api.selectionReferences(entry)))
}

// selectionReferences carries the focused stop and route so the page can
// label the close control without another request.
func (api *RestAPI) selectionReferences(entry models.SessionEntry) models.ReferencesModel {
	refs := models.NewEmptyReferences()
	if entry.Selection == nil {
		return refs
	}
	if stop := api.Dataset.Stop(entry.Selection.StopID); stop != nil {
		refs.Stops = append(refs.Stops, models.NewStop(stop))
	}
	if route := api.Dataset.Route(entry.Selection.RouteID); route != nil {
		refs.Routes = append(refs.Routes, models.NewRoute(route))
	}
	return refs
}

// dateTimeEvent reads the optional date and time parameters. The returned
// event is nil when neither is present.
func dateTimeEvent(r *http.Request, fieldErrors map[string][]string) (*render.Event, map[string][]string) {
	date, clock, fieldErrors := utils.ParseDateTimeParams(r.URL.Query(), fieldErrors)
	if date == "" && clock == "" {
		return nil, fieldErrors
	}
	return &render.Event{Kind: render.DateTimeChanged, Date: date, Clock: clock}, fieldErrors
}

// applyDateTime emits e on the session, keeping the current date or clock
// when e leaves it empty.
func applyDateTime(s *app.MapSession, e *render.Event) {
	if e == nil {
		return
	}
	date, clock := s.Controller.State().DateTime()
	if e.Date == "" {
		e.Date = date
	}
	if e.Clock == "" {
		e.Clock = clock
	}
	s.Scene.Emit(*e)
}

func (api *RestAPI) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := api.Sessions.Create(r.Context())
	if err != nil {
		api.sessionErrorResponse(w, r, err)
		return
	}

	var entry models.SessionEntry
	err = api.Sessions.Do(r.Context(), id, func(s *app.MapSession) error {
		entry = models.NewSessionEntry(s.ID, s.Controller.State(), s.Scene.Snapshot())
		return nil
	})
	if err != nil {
		api.sessionErrorResponse(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewResponse(http.StatusCreated, map[string]interface{}{
		"entry":      entry,
		"references": models.NewEmptyReferences(),
	}, "Created"))
}

func (api *RestAPI) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	if err := api.Sessions.Delete(r.Context(), utils.ExtractIDFromParams(r, "session")); err != nil {
		api.sessionErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *RestAPI) sceneHandler(w http.ResponseWriter, r *http.Request) {
	api.sessionAction(w, r, nil)
}

// popupHandler opens the popup of a stop. Unknown stops get a placeholder
// popup rather than an error.
func (api *RestAPI) popupHandler(w http.ResponseWriter, r *http.Request) {
	stopID := utils.ExtractIDFromParams(r, "stop")
	fieldErrors := make(map[string][]string)
	if err := utils.ValidateID(stopID); err != nil {
		fieldErrors["stop"] = append(fieldErrors["stop"], err.Error())
	}
	dt, fieldErrors := dateTimeEvent(r, fieldErrors)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	api.sessionAction(w, r, func(s *app.MapSession) error {
		applyDateTime(s, dt)
		s.Scene.Emit(render.Event{Kind: render.StopClicked, StopID: stopID})
		return nil
	})
}

func (api *RestAPI) selectRouteHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	stopID, routeID := query.Get("stop"), query.Get("route")

	fieldErrors := make(map[string][]string)
	if err := utils.ValidateID(stopID); err != nil {
		fieldErrors["stop"] = append(fieldErrors["stop"], err.Error())
	}
	if err := utils.ValidateID(routeID); err != nil {
		fieldErrors["route"] = append(fieldErrors["route"], err.Error())
	}
	dt, fieldErrors := dateTimeEvent(r, fieldErrors)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	if api.Dataset.Stop(stopID) == nil || api.Dataset.Route(routeID) == nil {
		api.sendNotFound(w, r)
		return
	}

	api.sessionAction(w, r, func(s *app.MapSession) error {
		applyDateTime(s, dt)
		s.Scene.Emit(render.Event{Kind: render.RouteChosen, StopID: stopID, RouteID: routeID})
		return nil
	})
}

func (api *RestAPI) closeLineHandler(w http.ResponseWriter, r *http.Request) {
	api.sessionAction(w, r, func(s *app.MapSession) error {
		s.Scene.Emit(render.Event{Kind: render.CloseLine})
		return nil
	})
}

func (api *RestAPI) resetViewHandler(w http.ResponseWriter, r *http.Request) {
	api.sessionAction(w, r, func(s *app.MapSession) error {
		s.Scene.Emit(render.Event{Kind: render.ResetView})
		return nil
	})
}

// locationHandler receives the browser geolocation result: either lat and
// lon, or the error message the browser reported.
func (api *RestAPI) locationHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if message := query.Get("error"); message != "" {
		api.sessionAction(w, r, func(s *app.MapSession) error {
			s.Scene.Emit(render.Event{Kind: render.LocateFailed, Message: message})
			return nil
		})
		return
	}

	lat, hasLat, fieldErrors := utils.ParseFloatParam(query, "lat", nil)
	lon, hasLon, fieldErrors := utils.ParseFloatParam(query, "lon", fieldErrors)
	if !hasLat && len(fieldErrors["lat"]) == 0 {
		fieldErrors["lat"] = append(fieldErrors["lat"], "lat is required")
	}
	if !hasLon && len(fieldErrors["lon"]) == 0 {
		fieldErrors["lon"] = append(fieldErrors["lon"], "lon is required")
	}
	if len(fieldErrors) == 0 {
		fieldErrors = utils.ValidateLocationParams(lat, lon)
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	api.sessionAction(w, r, func(s *app.MapSession) error {
		s.Scene.Emit(render.Event{Kind: render.Located, At: render.LatLng{Lat: lat, Lon: lon}})
		return nil
	})
}
