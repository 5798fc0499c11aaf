package restapi

import (
	"net/http"

	"transitmap.onebusaway.org/internal/models"
)

func (api *RestAPI) stopsHandler(w http.ResponseWriter, r *http.Request) {
	ids := api.Dataset.StopIDs()
	stops := make([]models.Stop, 0, len(ids))
	for _, id := range ids {
		stops = append(stops, models.NewStop(api.Dataset.Stop(id)))
	}
	api.sendResponse(w, r, models.NewListResponse(stops, models.NewEmptyReferences()))
}

func (api *RestAPI) routesHandler(w http.ResponseWriter, r *http.Request) {
	ids := api.Dataset.RouteIDs()
	routes := make([]models.Route, 0, len(ids))
	for _, id := range ids {
		routes = append(routes, models.NewRoute(api.Dataset.Route(id)))
	}
	api.sendResponse(w, r, models.NewListResponse(routes, models.NewEmptyReferences()))
}
