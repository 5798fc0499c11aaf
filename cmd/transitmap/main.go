package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julienschmidt/httprouter"

	"transitmap.onebusaway.org/internal/app"
	"transitmap.onebusaway.org/internal/appconf"
	"transitmap.onebusaway.org/internal/convert"
	"transitmap.onebusaway.org/internal/dataset"
	"transitmap.onebusaway.org/internal/logging"
	"transitmap.onebusaway.org/internal/metrics"
	"transitmap.onebusaway.org/internal/restapi"
	"transitmap.onebusaway.org/internal/webui"
)

func main() {
	if err := appconf.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := appconf.Load(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := logging.NewStructuredLogger(os.Stdout, level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector()

	// The map cannot work without its data: a load failure ends the process
	// before the server starts.
	start := time.Now()
	ds, err := loadDataset(logging.WithLogger(ctx, logger), cfg)
	if err != nil {
		logging.LogError(logger, "failed to load dataset", err,
			slog.String("data_source", cfg.DataSource),
			slog.String("gtfs_source", cfg.GTFSSource))
		os.Exit(1)
	}
	collector.DatasetLoaded(ds.Counts(), time.Since(start))

	application := app.New(cfg, logger, ds, collector)
	defer application.Close()

	collector.TrackSessions(func() float64 {
		n, err := application.Sessions.Len(context.Background())
		if err != nil {
			return 0
		}
		return float64(n)
	})

	api := restapi.NewRestAPI(application)
	defer api.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      routes(api, webui.New(application)),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	if err := serve(ctx, srv, logger); err != nil {
		logging.LogError(logger, "server stopped", err)
		os.Exit(1)
	}
}

// loadDataset converts the GTFS feed when one is configured and otherwise
// reads the prebuilt JSON dataset.
func loadDataset(ctx context.Context, cfg appconf.Config) (*dataset.Dataset, error) {
	client := &http.Client{Timeout: time.Minute}
	if cfg.GTFSSource != "" {
		return convert.Load(ctx, cfg.GTFSSource, client)
	}

	ds, err := dataset.Load(ctx, dataset.NewSource(cfg.DataSource, client))
	if err != nil {
		return nil, err
	}
	counts := ds.Counts()
	logging.LogOperation(logging.FromContext(ctx), "dataset_loaded",
		slog.String("source", cfg.DataSource),
		slog.Int("stops", counts.Stops),
		slog.Int("routes", counts.Routes),
		slog.Int("trips", counts.Trips))
	return ds, nil
}

// routes mounts the page and the API on one router behind the API middleware.
func routes(api *restapi.RestAPI, ui *webui.WebUI) http.Handler {
	router := httprouter.New()
	ui.SetWebUIRoutes(router)
	return api.Handler(router)
}

// serve runs srv until ctx is cancelled, then drains open requests.
func serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errs := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
