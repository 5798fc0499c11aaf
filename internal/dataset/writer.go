package dataset

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"transitmap.onebusaway.org/internal/logging"
)

// WriteDir writes the five resources into dir, keeping collection order.
func WriteDir(ctx context.Context, dir string, ds *Dataset) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	writers := map[Resource]func(io.Writer) error{
		ResourceStops: func(w io.Writer) error {
			return encodeObject(w, ds.stopIDs, func(id string) any { return ds.stops[id] })
		},
		ResourceRoutes: func(w io.Writer) error {
			return encodeObject(w, ds.routeIDs, func(id string) any { return ds.routes[id] })
		},
		ResourceServices: func(w io.Writer) error {
			return encodeObject(w, ds.serviceIDs, func(id string) any { return ds.services[id] })
		},
		ResourceTrips: func(w io.Writer) error {
			ids := make([]string, 0, len(ds.tripOrder))
			for _, t := range ds.tripOrder {
				ids = append(ids, t.ID)
			}
			return encodeObject(w, ids, func(id string) any { return ds.trips[id] })
		},
		ResourceShapes: func(w io.Writer) error {
			return encodeObject(w, ds.shapeIDs, func(id string) any { return ds.shapes[id].Points })
		},
	}

	for _, resource := range Resources {
		if err := writeFile(ctx, filepath.Join(dir, resource.FileName()), writers[resource]); err != nil {
			return fmt.Errorf("writing %s: %w", resource.FileName(), err)
		}
	}
	return nil
}

func writeFile(ctx context.Context, path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer logging.CloseInto(ctx, &err, f, filepath.Base(path))

	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		return err
	}
	return bw.Flush()
}

func encodeObject(w io.Writer, ids []string, value func(id string) any) error {
	if _, err := io.WriteString(w, "{"); err != nil {
		return err
	}
	for i, id := range ids {
		key, err := json.Marshal(id)
		if err != nil {
			return err
		}
		val, err := json.Marshal(value(id))
		if err != nil {
			return fmt.Errorf("encoding %q: %w", id, err)
		}
		sep := ",\n  "
		if i == 0 {
			sep = "\n  "
		}
		if _, err := fmt.Fprintf(w, "%s%s: %s", sep, key, val); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n}\n")
	return err
}
