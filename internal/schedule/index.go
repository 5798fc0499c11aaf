// Package schedule answers which trips run at a stop or on a route for a
// given service date and time.
package schedule

import (
	"sort"

	"transitmap.onebusaway.org/internal/calendar"
	"transitmap.onebusaway.org/internal/dataset"
)

// Index groups the trips of a dataset by route and by stop. Every list keeps
// the dataset's trip order.
type Index struct {
	ds           *dataset.Dataset
	tripsByRoute map[string][]*dataset.Trip
	tripsByStop  map[string][]*dataset.Trip
}

func NewIndex(ds *dataset.Dataset) *Index {
	idx := &Index{
		ds:           ds,
		tripsByRoute: make(map[string][]*dataset.Trip),
		tripsByStop:  make(map[string][]*dataset.Trip),
	}
	for _, trip := range ds.Trips() {
		idx.tripsByRoute[trip.RouteID] = append(idx.tripsByRoute[trip.RouteID], trip)

		seen := make(map[string]bool, len(trip.Stops))
		for _, stopID := range trip.Stops {
			if seen[stopID] {
				continue
			}
			seen[stopID] = true
			idx.tripsByStop[stopID] = append(idx.tripsByStop[stopID], trip)
		}
	}
	return idx
}

func (idx *Index) Dataset() *dataset.Dataset { return idx.ds }

// ActiveTripsForStop returns the trips visiting stopID that run at date/clock.
func (idx *Index) ActiveTripsForStop(stopID, date, clock string) []*dataset.Trip {
	return idx.active(idx.tripsByStop[stopID], date, clock)
}

// ActiveTripsForRoute returns the trips of routeID that run at date/clock.
func (idx *Index) ActiveTripsForRoute(routeID, date, clock string) []*dataset.Trip {
	return idx.active(idx.tripsByRoute[routeID], date, clock)
}

func (idx *Index) active(trips []*dataset.Trip, date, clock string) []*dataset.Trip {
	var result []*dataset.Trip
	for _, trip := range trips {
		if calendar.IsTripActive(idx.ds.Service(trip.ServiceID), date, clock) {
			result = append(result, trip)
		}
	}
	return result
}

// RouteChoice is one route offered in a stop popup.
type RouteChoice struct {
	RouteID string
	Label   string
	TripIDs []string
}

// RoutesForStop groups the active trips of a stop by route, in the order each
// route is first seen.
func (idx *Index) RoutesForStop(stopID, date, clock string) []RouteChoice {
	var choices []RouteChoice
	position := make(map[string]int)

	for _, trip := range idx.ActiveTripsForStop(stopID, date, clock) {
		i, ok := position[trip.RouteID]
		if !ok {
			label := "ID " + trip.RouteID
			if route := idx.ds.Route(trip.RouteID); route != nil {
				label = route.Label()
			}
			i = len(choices)
			position[trip.RouteID] = i
			choices = append(choices, RouteChoice{RouteID: trip.RouteID, Label: label})
		}
		choices[i].TripIDs = append(choices[i].TripIDs, trip.ID)
	}
	return choices
}

// DirectionGroups holds one exemplar trip per direction.
type DirectionGroups map[dataset.Direction]*dataset.Trip

// GroupByDirection keeps the first trip seen for each direction and drops the
// rest.
func GroupByDirection(trips []*dataset.Trip) DirectionGroups {
	groups := make(DirectionGroups)
	for _, trip := range trips {
		if _, seen := groups[trip.Direction]; !seen {
			groups[trip.Direction] = trip
		}
	}
	return groups
}

// Directions returns the grouped directions in ascending order.
func (g DirectionGroups) Directions() []dataset.Direction {
	directions := make([]dataset.Direction, 0, len(g))
	for d := range g {
		directions = append(directions, d)
	}
	sort.Slice(directions, func(i, j int) bool { return directions[i] < directions[j] })
	return directions
}

// Trip returns the exemplar trip of direction d, or nil.
func (g DirectionGroups) Trip(d dataset.Direction) *dataset.Trip {
	return g[d]
}
