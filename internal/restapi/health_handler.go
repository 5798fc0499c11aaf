package restapi

import (
	"net/http"

	"transitmap.onebusaway.org/internal/models"
)

type healthEntry struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
	Stops    int    `json:"stops"`
	Trips    int    `json:"trips"`
}

func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	sessions, err := api.Sessions.Len(r.Context())
	if err != nil {
		api.sessionErrorResponse(w, r, err)
		return
	}
	counts := api.Dataset.Counts()
	api.sendResponse(w, r, models.NewOKResponse(healthEntry{
		Status:   "ok",
		Sessions: sessions,
		Stops:    counts.Stops,
		Trips:    counts.Trips,
	}))
}
