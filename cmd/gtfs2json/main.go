// Command gtfs2json converts a GTFS static feed into the five JSON files the
// map server loads.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"transitmap.onebusaway.org/internal/convert"
	"transitmap.onebusaway.org/internal/dataset"
	"transitmap.onebusaway.org/internal/logging"
)

func main() {
	logger := logging.NewStructuredLogger(os.Stderr, slog.LevelInfo)
	if err := run(context.Background(), os.Args[1:], logger, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			logging.LogError(logger, "conversion failed", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, logger *slog.Logger, usage io.Writer) error {
	set := flag.NewFlagSet("gtfs2json", flag.ContinueOnError)
	set.SetOutput(usage)
	source := set.String("gtfs", "", "GTFS zip file path or URL")
	out := set.String("out", "public_data", "Output directory for the JSON dataset")
	timeout := set.Duration("timeout", 2*time.Minute, "Download timeout for URL sources")
	if err := set.Parse(args); err != nil {
		return err
	}
	if *source == "" {
		set.Usage()
		return errors.New("-gtfs is required")
	}

	ctx = logging.WithLogger(ctx, logger)
	ds, err := convert.Load(ctx, *source, &http.Client{Timeout: *timeout})
	if err != nil {
		return err
	}

	if err := dataset.WriteDir(ctx, *out, ds); err != nil {
		return fmt.Errorf("writing dataset: %w", err)
	}
	logging.LogOperation(logger, "dataset_written", slog.String("dir", *out))
	return nil
}
