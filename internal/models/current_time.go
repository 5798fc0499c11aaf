package models

import (
	"time"

	"transitmap.onebusaway.org/internal/calendar"
)

// CurrentTimeModel Current time specific model
type CurrentTimeModel struct {
	ReadableTime string `json:"readableTime"`
	Time         int64  `json:"time"`
	// ServiceDate and Clock are the values a new session starts with.
	ServiceDate string `json:"serviceDate"`
	Clock       string `json:"clock"`
}

// CurrentTimeData Combined data structure for current time endpoint
type CurrentTimeData struct {
	Entry      CurrentTimeModel `json:"entry"`
	References ReferencesModel  `json:"references"`
}

// NewCurrentTimeData creates a CurrentTimeData structure based on a provided Time
func NewCurrentTimeData(t time.Time) CurrentTimeData {
	return CurrentTimeData{
		Entry: CurrentTimeModel{
			ReadableTime: t.Format(time.RFC3339),
			Time:         t.UnixMilli(),
			ServiceDate:  calendar.FormatDate(t),
			Clock:        calendar.FormatClock(t),
		},
		References: NewEmptyReferences(),
	}
}
