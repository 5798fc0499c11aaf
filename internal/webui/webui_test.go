package webui

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitmap.onebusaway.org/internal/app"
	"transitmap.onebusaway.org/internal/appconf"
	"transitmap.onebusaway.org/internal/dataset"
)

func newTestRouter(t *testing.T) *httprouter.Router {
	t.Helper()
	application := app.New(appconf.Default(), slog.New(slog.NewTextHandler(io.Discard, nil)), dataset.LoadFixture(t), nil)
	t.Cleanup(application.Close)

	router := httprouter.New()
	New(application).SetWebUIRoutes(router)
	return router
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestIndexPage(t *testing.T) {
	w := get(t, newTestRouter(t), "/")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), `<div id="map"></div>`)
	assert.Contains(t, w.Body.String(), "/static/app.js")
}

func TestStaticAssets(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		path        string
		contentType string
	}{
		{"/static/app.js", "javascript"},
		{"/static/app.css", "text/css"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := get(t, router, tt.path)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), tt.contentType)
			assert.NotEmpty(t, w.Body.String())
		})
	}

	assert.Equal(t, http.StatusNotFound, get(t, router, "/static/missing.js").Code)
}

func TestDebugIndexHandler(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		dataType string
		title    string
		contains string
	}{
		{"stops", "Dataset - Stops", "Porta Nuova"},
		{"routes", "Dataset - Routes", "R1"},
		{"services", "Dataset - Services", "WEEKDAY"},
		{"trips", "Dataset - Trips", "T1"},
		{"shapes", "Dataset - Shapes", "SH1"},
		{"counts", "Dataset - Counts", "Stops: (int) 6"},
		{"", "Choose a data type", "Please use one of the following"},
	}
	for _, tt := range tests {
		t.Run("dataType="+tt.dataType, func(t *testing.T) {
			w := get(t, router, "/debug/?dataType="+tt.dataType)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
			assert.Contains(t, w.Body.String(), "<title>"+tt.title+"</title>")
			assert.Contains(t, w.Body.String(), tt.contains)
		})
	}
}
