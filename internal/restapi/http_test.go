package restapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/require"

	"transitmap.onebusaway.org/internal/app"
	"transitmap.onebusaway.org/internal/appconf"
	"transitmap.onebusaway.org/internal/dataset"
	"transitmap.onebusaway.org/internal/models"
)

// testNow is a Wednesday; R1 runs, R2 does not.
var testNow = time.Date(2024, time.January, 3, 10, 30, 0, 0, time.UTC)

// createTestApi builds an API over the fixture dataset with rate limiting
// disabled.
func createTestApi(t *testing.T) *RestAPI {
	t.Helper()
	cfg := appconf.Default()
	cfg.Env = appconf.Test
	cfg.RateLimit = 0
	return createTestApiWithConfig(t, cfg)
}

func createTestApiWithConfig(t *testing.T, cfg appconf.Config) *RestAPI {
	t.Helper()
	return createTestApiWithDataset(t, cfg, dataset.LoadFixture(t))
}

func createTestApiWithDataset(t *testing.T, cfg appconf.Config, ds *dataset.Dataset) *RestAPI {
	t.Helper()
	application := app.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), ds, nil)
	application.Now = func() time.Time { return testNow }

	api := NewRestAPI(application)
	t.Cleanup(func() {
		api.Close()
		application.Close()
	})
	return api
}

// serveApiAndRetrieveEndpoint sends a request through the full middleware
// chain and decodes the response envelope.
func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, method, endpoint string) (*http.Response, models.ResponseModel) {
	t.Helper()
	server := httptest.NewServer(api.Handler(httprouter.New()))
	defer server.Close()

	req, err := http.NewRequest(method, server.URL+endpoint, nil)
	require.NoError(t, err)
	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() // nolint:errcheck

	var response models.ResponseModel
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
	}
	return resp, response
}

func serveAndRetrieveEndpoint(t *testing.T, endpoint string) (*RestAPI, *http.Response, models.ResponseModel) {
	t.Helper()
	api := createTestApi(t)
	resp, model := serveApiAndRetrieveEndpoint(t, api, http.MethodGet, endpoint)
	return api, resp, model
}

// decodeInto re-encodes v, typically a decoded map, into out.
func decodeInto(t *testing.T, v interface{}, out interface{}) {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, out))
}

// entryOf extracts data.entry of an envelope into out.
func entryOf(t *testing.T, model models.ResponseModel, out interface{}) {
	t.Helper()
	data, ok := model.Data.(map[string]interface{})
	require.True(t, ok, "data should be an object")
	decodeInto(t, data["entry"], out)
}
