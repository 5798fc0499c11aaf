package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitmap.onebusaway.org/internal/dataset"
	"transitmap.onebusaway.org/internal/render"
	"transitmap.onebusaway.org/internal/session"
)

func TestNewStopAndRoute(t *testing.T) {
	stop := NewStop(&dataset.Stop{ID: "S1", Code: "1", Name: "Porta Nuova", Lat: 45.06, Lon: 7.67})
	assert.Equal(t, Stop{Code: "1", ID: "S1", Lat: 45.06, Lon: 7.67, Name: "Porta Nuova"}, stop)

	route := NewRoute(&dataset.Route{ID: "R2", AgencyID: "GTT", LongName: "Castello"})
	assert.Equal(t, "ID R2", route.Label)
	assert.Equal(t, "GTT", route.AgencyID)

	b, err := json.Marshal(route)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"R2","agencyId":"GTT","shortName":"","longName":"Castello","color":"","textColor":"","label":"ID R2"}`, string(b))
}

func TestNewSessionEntry(t *testing.T) {
	state := session.NewState("20240103", "10:00")
	scene := render.NewScene(render.View{Zoom: 15}).Snapshot()

	entry := NewSessionEntry("abc", state, scene)
	assert.Equal(t, "abc", entry.SessionID)
	assert.Equal(t, "20240103", entry.Date)
	assert.Equal(t, "10:00", entry.Time)
	assert.Nil(t, entry.Selection)
	assert.False(t, entry.LineMode)

	state.Select("S1", "R1")
	entry = NewSessionEntry("abc", state, scene)
	require.NotNil(t, entry.Selection)
	assert.Equal(t, session.Selection{StopID: "S1", RouteID: "R1"}, *entry.Selection)
	assert.True(t, entry.LineMode)

	state.Reset()
	entry = NewSessionEntry("abc", state, scene)
	assert.Nil(t, entry.Selection)
	assert.False(t, entry.LineMode)
}

func TestNewCurrentTimeData(t *testing.T) {
	testTime := time.Date(2024, 1, 3, 8, 5, 0, 0, time.UTC)

	result := NewCurrentTimeData(testTime)

	assert.Equal(t, testTime.UnixMilli(), result.Entry.Time)
	assert.Equal(t, "2024-01-03T08:05:00Z", result.Entry.ReadableTime)
	assert.Equal(t, "20240103", result.Entry.ServiceDate)
	assert.Equal(t, "08:05", result.Entry.Clock)
	assert.NotNil(t, result.References.Routes)
}
