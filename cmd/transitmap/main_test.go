package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitmap.onebusaway.org/internal/app"
	"transitmap.onebusaway.org/internal/appconf"
	"transitmap.onebusaway.org/internal/dataset"
	"transitmap.onebusaway.org/internal/restapi"
	"transitmap.onebusaway.org/internal/webui"
)

func fixtureConfig(t *testing.T) appconf.Config {
	t.Helper()
	cfg := appconf.Default()
	cfg.Env = appconf.Test
	cfg.DataSource = filepath.Join("..", "..", "testdata", "dataset")
	return cfg
}

func TestLoadDataset(t *testing.T) {
	ds, err := loadDataset(context.Background(), fixtureConfig(t))
	require.NoError(t, err)
	assert.Equal(t, 6, ds.Counts().Stops)
}

func TestLoadDatasetFailure(t *testing.T) {
	cfg := fixtureConfig(t)
	cfg.DataSource = t.TempDir()

	_, err := loadDataset(context.Background(), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, dataset.ErrDataLoad)
}

func TestRoutesServePageAndAPI(t *testing.T) {
	cfg := fixtureConfig(t)
	ds, err := loadDataset(context.Background(), cfg)
	require.NoError(t, err)

	application := app.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), ds, nil)
	defer application.Close()
	api := restapi.NewRestAPI(application)
	defer api.Close()

	server := httptest.NewServer(routes(api, webui.New(application)))
	defer server.Close()

	for _, path := range []string{"/", "/static/app.js", "/api/stops.json", "/debug/?dataType=counts", "/healthz", "/metrics"} {
		resp, err := server.Client().Get(server.URL + path)
		require.NoError(t, err, path)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"), path)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, slog.New(slog.NewTextHandler(io.Discard, nil))) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
