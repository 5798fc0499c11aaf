package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"transitmap.onebusaway.org/internal/logging"
)

// Resource names one of the five dataset files.
type Resource string

const (
	ResourceStops    Resource = "stops"
	ResourceRoutes   Resource = "routes"
	ResourceTrips    Resource = "trips"
	ResourceServices Resource = "services"
	ResourceShapes   Resource = "shapes"
)

// Resources lists every resource a complete dataset needs.
var Resources = []Resource{ResourceStops, ResourceRoutes, ResourceTrips, ResourceServices, ResourceShapes}

func (r Resource) FileName() string { return string(r) + ".json" }

// ErrDataLoad matches every failure returned by Load.
var ErrDataLoad = errors.New("dataset load failed")

// LoadError reports which resource could not be fetched or parsed.
type LoadError struct {
	Resource Resource
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Resource.FileName(), e.Err)
}

func (e *LoadError) Unwrap() []error { return []error{ErrDataLoad, e.Err} }

// Source provides the raw content of each resource.
type Source interface {
	Open(ctx context.Context, resource Resource) (io.ReadCloser, error)
	String() string
}

// DirSource reads resources from a local directory.
type DirSource struct {
	Dir string
}

func (s DirSource) Open(_ context.Context, resource Resource) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.Dir, resource.FileName()))
}

func (s DirSource) String() string { return s.Dir }

// HTTPSource fetches resources relative to a base URL.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

func (s HTTPSource) Open(ctx context.Context, resource Resource) (io.ReadCloser, error) {
	target, err := url.JoinPath(s.BaseURL, resource.FileName())
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s from %s", resp.Status, target)
	}
	return resp.Body, nil
}

func (s HTTPSource) String() string { return s.BaseURL }

// NewSource picks an HTTPSource for http(s) locations and a DirSource otherwise.
func NewSource(location string, client *http.Client) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return HTTPSource{BaseURL: location, Client: client}
	}
	return DirSource{Dir: location}
}

type entry[T any] struct {
	id    string
	value T
}

// Load fetches all five resources concurrently. Either every resource loads
// and a complete Dataset is returned, or the first failure is returned and no
// dataset is built.
func Load(ctx context.Context, src Source) (*Dataset, error) {
	var (
		stops    []entry[Stop]
		routes   []entry[Route]
		trips    []entry[Trip]
		services []entry[Service]
		shapes   []entry[[]Point]
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { stops, err = fetch[Stop](gctx, src, ResourceStops); return })
	g.Go(func() (err error) { routes, err = fetch[Route](gctx, src, ResourceRoutes); return })
	g.Go(func() (err error) { trips, err = fetch[Trip](gctx, src, ResourceTrips); return })
	g.Go(func() (err error) { services, err = fetch[Service](gctx, src, ResourceServices); return })
	g.Go(func() (err error) { shapes, err = fetch[[]Point](gctx, src, ResourceShapes); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b := NewBuilder()
	for _, e := range stops {
		e.value.ID = e.id
		b.AddStop(e.value)
	}
	for _, e := range routes {
		e.value.ID = e.id
		b.AddRoute(e.value)
	}
	for _, e := range services {
		e.value.ID = e.id
		b.AddService(e.value)
	}
	for _, e := range trips {
		e.value.ID = e.id
		b.AddTrip(e.value)
	}
	for _, e := range shapes {
		b.AddShape(Shape{ID: e.id, Points: e.value})
	}
	return b.Build(), nil
}

func fetch[T any](ctx context.Context, src Source, resource Resource) ([]entry[T], error) {
	rc, err := src.Open(ctx, resource)
	if err != nil {
		return nil, &LoadError{Resource: resource, Err: err}
	}
	defer logging.CloseLogged(ctx, rc, resource.FileName())

	var entries []entry[T]
	err = decodeObject(rc, func(id string, value T) {
		entries = append(entries, entry[T]{id: id, value: value})
	})
	if err != nil {
		return nil, &LoadError{Resource: resource, Err: err}
	}
	return entries, nil
}

// decodeObject walks a top-level JSON object and yields its members in
// document order.
func decodeObject[T any](r io.Reader, each func(id string, value T)) error {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected a JSON object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		id, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected an object key, got %v", tok)
		}
		var value T
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("decoding %q: %w", id, err)
		}
		each(id, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
