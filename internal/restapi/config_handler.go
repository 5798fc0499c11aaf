package restapi

import (
	"net/http"

	"transitmap.onebusaway.org/internal/models"
)

// configHandler returns the map settings the page needs before it creates a
// session: tiles, zoom limits, clustering and colors.
func (api *RestAPI) configHandler(w http.ResponseWriter, r *http.Request) {
	api.sendResponse(w, r, models.NewEntryResponse(api.Config.Map, models.NewEmptyReferences()))
}
