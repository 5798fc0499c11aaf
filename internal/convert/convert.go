// Package convert turns a GTFS static feed into the dataset served by the
// map.
package convert

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jamespfennell/gtfs"

	"transitmap.onebusaway.org/internal/calendar"
	"transitmap.onebusaway.org/internal/dataset"
	"transitmap.onebusaway.org/internal/logging"
)

// Fetch reads a GTFS zip from a local path or an http(s) URL.
func Fetch(ctx context.Context, source string, client *http.Client) ([]byte, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		b, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("error reading local GTFS file: %w", err)
		}
		return b, nil
	}

	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("error building GTFS request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading GTFS data: %w", err)
	}
	defer logging.CloseLogged(ctx, resp.Body, "gtfs download")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error downloading GTFS data: %s", resp.Status)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading GTFS data: %w", err)
	}
	return b, nil
}

// Parse decodes a GTFS zip archive.
func Parse(b []byte) (*gtfs.Static, error) {
	static, err := gtfs.ParseStatic(b, gtfs.ParseStaticOptions{})
	if err != nil {
		return nil, fmt.Errorf("error parsing GTFS data: %w", err)
	}
	return static, nil
}

// Load fetches, parses and converts a feed in one step.
func Load(ctx context.Context, source string, client *http.Client) (*dataset.Dataset, error) {
	logger := logging.FromContext(ctx)
	start := time.Now()

	b, err := Fetch(ctx, source, client)
	if err != nil {
		return nil, err
	}
	static, err := Parse(b)
	if err != nil {
		return nil, err
	}
	ds := FromStatic(static)

	counts := ds.Counts()
	logging.LogOperation(logger, "gtfs_converted",
		slog.String("source", source),
		slog.Int("stops", counts.Stops),
		slog.Int("routes", counts.Routes),
		slog.Int("services", counts.Services),
		slog.Int("trips", counts.Trips),
		slog.Int("shapes", counts.Shapes),
		slog.Int("warnings", len(static.Warnings)),
		slog.Duration("duration", time.Since(start)))
	return ds, nil
}

// FromStatic converts a parsed feed. Stops without coordinates are dropped.
// Each service gets the time window spanned by its trips' stop times.
func FromStatic(static *gtfs.Static) *dataset.Dataset {
	b := dataset.NewBuilder()

	for i := range static.Stops {
		s := &static.Stops[i]
		if s.Latitude == nil || s.Longitude == nil {
			continue
		}
		b.AddStop(dataset.Stop{
			ID:   s.Id,
			Name: s.Name,
			Lat:  *s.Latitude,
			Lon:  *s.Longitude,
			Code: s.Code,
		})
	}

	for i := range static.Routes {
		r := &static.Routes[i]
		route := dataset.Route{
			ID:        r.Id,
			ShortName: r.ShortName,
			LongName:  r.LongName,
			Color:     r.Color,
			TextColor: r.TextColor,
		}
		if r.Agency != nil {
			route.AgencyID = r.Agency.Id
		}
		b.AddRoute(route)
	}

	windows := serviceWindows(static.Trips)
	for i := range static.Services {
		b.AddService(convertService(&static.Services[i], windows[static.Services[i].Id]))
	}

	for i := range static.Trips {
		b.AddTrip(convertTrip(&static.Trips[i]))
	}

	for i := range static.Shapes {
		s := &static.Shapes[i]
		points := make([]dataset.Point, 0, len(s.Points))
		for _, pt := range s.Points {
			points = append(points, dataset.Point{Lat: pt.Latitude, Lon: pt.Longitude})
		}
		b.AddShape(dataset.Shape{ID: s.ID, Points: points})
	}

	return b.Build()
}

func convertService(s *gtfs.Service, w window) dataset.Service {
	svc := dataset.Service{ID: s.Id}
	svc.Days[time.Sunday] = s.Sunday
	svc.Days[time.Monday] = s.Monday
	svc.Days[time.Tuesday] = s.Tuesday
	svc.Days[time.Wednesday] = s.Wednesday
	svc.Days[time.Thursday] = s.Thursday
	svc.Days[time.Friday] = s.Friday
	svc.Days[time.Saturday] = s.Saturday

	if !s.StartDate.IsZero() {
		svc.StartDate = calendar.FormatDate(s.StartDate)
	}
	if !s.EndDate.IsZero() {
		svc.EndDate = calendar.FormatDate(s.EndDate)
	}

	for _, d := range s.AddedDates {
		svc.Exceptions = append(svc.Exceptions, dataset.Exception{Date: calendar.FormatDate(d), Type: dataset.ExceptionAdded})
	}
	for _, d := range s.RemovedDates {
		svc.Exceptions = append(svc.Exceptions, dataset.Exception{Date: calendar.FormatDate(d), Type: dataset.ExceptionRemoved})
	}

	if w.valid {
		svc.StartTime = formatDuration(w.start)
		svc.EndTime = formatDuration(w.end)
	}
	return svc
}

func convertTrip(t *gtfs.ScheduledTrip) dataset.Trip {
	trip := dataset.Trip{ID: t.ID}
	if t.Route != nil {
		trip.RouteID = t.Route.Id
	}
	if t.Service != nil {
		trip.ServiceID = t.Service.Id
	}
	if t.Shape != nil {
		trip.ShapeID = t.Shape.ID
	}
	if t.DirectionId == gtfs.DirectionID_True {
		trip.Direction = dataset.Inbound
	}

	stopTimes := make([]gtfs.ScheduledStopTime, len(t.StopTimes))
	copy(stopTimes, t.StopTimes)
	sort.SliceStable(stopTimes, func(i, j int) bool {
		return stopTimes[i].StopSequence < stopTimes[j].StopSequence
	})
	for _, st := range stopTimes {
		if st.Stop != nil {
			trip.Stops = append(trip.Stops, st.Stop.Id)
		}
	}
	return trip
}

type window struct {
	start, end time.Duration
	valid      bool
}

// serviceWindows spans, per service, the earliest departure and the latest
// arrival of its trips.
func serviceWindows(trips []gtfs.ScheduledTrip) map[string]window {
	windows := make(map[string]window)
	for i := range trips {
		t := &trips[i]
		if t.Service == nil {
			continue
		}
		w := windows[t.Service.Id]
		for _, st := range t.StopTimes {
			if !w.valid || st.DepartureTime < w.start {
				w.start = st.DepartureTime
			}
			if !w.valid || st.ArrivalTime > w.end {
				w.end = st.ArrivalTime
			}
			w.valid = true
		}
		windows[t.Service.Id] = w
	}
	return windows
}

// formatDuration renders a time since midnight as HH:MM:SS; hours may exceed
// 23 for trips running past midnight.
func formatDuration(d time.Duration) string {
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
}
