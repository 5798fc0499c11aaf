package dataset

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Stop corresponds to one entry of stops.json.
type Stop struct {
	ID   string  `json:"stop_id"`
	Name string  `json:"stop_name"`
	Lat  float64 `json:"stop_lat"`
	Lon  float64 `json:"stop_lon"`
	Code string  `json:"stop_code,omitempty"`
}

// Route corresponds to one entry of routes.json. The id is the object key.
type Route struct {
	ID        string `json:"-"`
	ShortName string `json:"short_name"`
	LongName  string `json:"long_name"`
	AgencyID  string `json:"agency_id"`
	Color     string `json:"color"`
	TextColor string `json:"text_color"`
}

// Label is the name shown in a stop popup.
func (r *Route) Label() string {
	if r == nil {
		return ""
	}
	if r.ShortName != "" {
		return r.ShortName
	}
	return "ID " + r.ID
}

// ExceptionType mirrors calendar_dates.txt exception_type.
type ExceptionType int

const (
	ExceptionAdded   ExceptionType = 1
	ExceptionRemoved ExceptionType = 2
)

// Exception is a single calendar_dates entry of a service.
type Exception struct {
	Date string        `json:"date"`
	Type ExceptionType `json:"exception_type"`
}

// dayKeys is indexed by time.Weekday (0 = Sunday).
var dayKeys = [7]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// Service is a calendar pattern. Days is indexed by time.Weekday.
// Empty StartDate or EndDate means the range is open on that side.
type Service struct {
	ID         string
	Days       [7]bool
	StartDate  string
	EndDate    string
	Exceptions []Exception
	StartTime  string
	EndTime    string
}

type serviceJSON struct {
	Days      map[string]int `json:"days"`
	StartDate *string        `json:"start_date"`
	EndDate   *string        `json:"end_date"`
	Dates     []Exception    `json:"dates"`
	StartTime string         `json:"start_time,omitempty"`
	EndTime   string         `json:"end_time,omitempty"`
}

func (s *Service) UnmarshalJSON(b []byte) error {
	var raw serviceJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for i, key := range dayKeys {
		s.Days[i] = raw.Days[key] == 1
	}
	if raw.StartDate != nil {
		s.StartDate = *raw.StartDate
	}
	if raw.EndDate != nil {
		s.EndDate = *raw.EndDate
	}
	s.Exceptions = raw.Dates
	s.StartTime = raw.StartTime
	s.EndTime = raw.EndTime
	return nil
}

func (s Service) MarshalJSON() ([]byte, error) {
	raw := serviceJSON{
		Days:      make(map[string]int, len(dayKeys)),
		Dates:     s.Exceptions,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
	}
	for i, key := range dayKeys {
		if s.Days[i] {
			raw.Days[key] = 1
		} else {
			raw.Days[key] = 0
		}
	}
	if s.StartDate != "" {
		raw.StartDate = &s.StartDate
	}
	if s.EndDate != "" {
		raw.EndDate = &s.EndDate
	}
	if raw.Dates == nil {
		raw.Dates = []Exception{}
	}
	return json.Marshal(raw)
}

// Direction is the binary GTFS direction_id. Anything that is not 1 reads as 0.
type Direction int

const (
	Outbound Direction = 0
	Inbound  Direction = 1
)

func (d Direction) String() string {
	if d == Inbound {
		return "1"
	}
	return "0"
}

func (d *Direction) UnmarshalJSON(b []byte) error {
	switch strings.Trim(strings.TrimSpace(string(b)), `"`) {
	case "1", "true":
		*d = Inbound
	default:
		*d = Outbound
	}
	return nil
}

func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Trip is one scheduled run of a route. Stops is the ordered stop pattern.
type Trip struct {
	ID        string    `json:"-"`
	RouteID   string    `json:"route_id"`
	ServiceID string    `json:"service_id"`
	ShapeID   string    `json:"shape_id"`
	Direction Direction `json:"direction_id"`
	Stops     []string  `json:"stops"`
}

// Point is a single shape vertex, encoded as [lat, lon].
type Point struct {
	Lat float64
	Lon float64
}

func (p *Point) UnmarshalJSON(b []byte) error {
	var pair []float64
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("shape point must have 2 coordinates, got %d", len(pair))
	}
	p.Lat, p.Lon = pair[0], pair[1]
	return nil
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.Lat, p.Lon})
}

// Shape is the polyline geometry of a trip.
type Shape struct {
	ID     string
	Points []Point
}

// DirectionSet records which directions serve a stop.
type DirectionSet uint8

func (s DirectionSet) Add(d Direction) DirectionSet { return s | 1<<uint(d) }
func (s DirectionSet) Has(d Direction) bool         { return s&(1<<uint(d)) != 0 }
func (s DirectionSet) Both() bool                   { return s.Has(Outbound) && s.Has(Inbound) }
func (s DirectionSet) Empty() bool                  { return s == 0 }
