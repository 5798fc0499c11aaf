package restapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"transitmap.onebusaway.org/internal/logging"
	"transitmap.onebusaway.org/internal/models"
	"transitmap.onebusaway.org/internal/session"
)

type errorEnvelope struct {
	Code        int    `json:"code"`
	CurrentTime int64  `json:"currentTime"`
	Text        string `json:"text"`
	Version     int    `json:"version"`
}

func (api *RestAPI) sendErrorEnvelope(w http.ResponseWriter, r *http.Request, code int, text string) {
	response := errorEnvelope{
		Code:        code,
		CurrentTime: models.ResponseCurrentTime(),
		Text:        text,
		Version:     2,
	}

	setJSONResponseType(&w)
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		api.Logger.Error("failed to encode error response", "error", err, "status", code)
	}
}

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(logging.FromContext(r.Context()), "request failed", err,
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path))
	api.sendErrorEnvelope(w, r, http.StatusInternalServerError, "internal server error")
}

// validationErrorResponse sends a 400 Bad Request response with field-specific validation errors
func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	response := struct {
		FieldErrors map[string][]string `json:"fieldErrors"`
	}{
		FieldErrors: fieldErrors,
	}

	setJSONResponseType(&w)
	w.WriteHeader(http.StatusBadRequest)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		api.Logger.Error("failed to encode validation error response", "error", err)
	}
}

// sessionErrorResponse maps errors of the session registry onto responses.
func (api *RestAPI) sessionErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrUnknownSession):
		api.sendErrorEnvelope(w, r, http.StatusNotFound, "session not found")
	case errors.Is(err, session.ErrRegistryClosed):
		api.sendErrorEnvelope(w, r, http.StatusServiceUnavailable, "server shutting down")
	case r.Context().Err() != nil:
		// The client went away; nobody reads the response.
		logging.FromContext(r.Context()).Debug("request cancelled", "path", r.URL.Path)
	default:
		api.serverErrorResponse(w, r, err)
	}
}
