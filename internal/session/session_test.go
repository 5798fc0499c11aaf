package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitmap.onebusaway.org/internal/dataset"
	"transitmap.onebusaway.org/internal/render"
)

func TestStateSelection(t *testing.T) {
	s := NewState("20240101", "08:00")

	_, ok := s.Selection()
	assert.False(t, ok)
	assert.False(t, s.LineMode())
	assert.False(t, s.IsCurrent("S1", "R1"))

	s.Select("S1", "R1")
	sel, ok := s.Selection()
	require.True(t, ok)
	assert.Equal(t, Selection{StopID: "S1", RouteID: "R1"}, sel)
	assert.True(t, s.LineMode())
	assert.True(t, s.IsCurrent("S1", "R1"))
	assert.False(t, s.IsCurrent("S2", "R1"), "current is scoped to the selected stop")
	assert.False(t, s.IsCurrent("S1", "R2"))

	s.SetStopDirections(map[string]dataset.DirectionSet{"S1": dataset.DirectionSet(0).Add(dataset.Inbound)})
	assert.True(t, s.StopDirections("S1").Has(dataset.Inbound))
	assert.True(t, s.StopDirections("S9").Empty())

	s.Reset()
	_, ok = s.Selection()
	assert.False(t, ok)
	assert.False(t, s.LineMode())
	assert.True(t, s.StopDirections("S1").Empty())
}

func TestStateShapes(t *testing.T) {
	scene := render.NewScene(render.View{})
	s := NewState("", "")

	s.AddShape(scene.DrawPolyline(render.Polyline{Color: "#c84949"}))
	s.AddShape(scene.DrawPolyline(render.Polyline{Color: "#2b70cb"}))
	require.Len(t, s.Shapes(), 2)

	s.Reset()
	assert.Len(t, s.Shapes(), 2, "reset leaves shapes to ClearShapes")

	s.ClearShapes(scene)
	assert.Empty(t, s.Shapes())
	assert.Empty(t, scene.Snapshot().Polylines)

	s.ClearShapes(scene)
	assert.Empty(t, s.Shapes())
}

func TestStateDateTime(t *testing.T) {
	s := NewState("20240101", "08:00")
	date, clock := s.DateTime()
	assert.Equal(t, "20240101", date)
	assert.Equal(t, "08:00", clock)

	s.SetDateTime("20240106", "")
	date, clock = s.DateTime()
	assert.Equal(t, "20240106", date)
	assert.Empty(t, clock)
}

type counter struct{ n int }

func newCounterRegistry(t *testing.T, ttl time.Duration) *Registry[*counter] {
	t.Helper()
	r := NewRegistry(func(string) (*counter, error) { return &counter{}, nil }, ttl, nil)
	t.Cleanup(r.Close)
	return r
}

func TestRegistryCreateAndDo(t *testing.T) {
	ctx := context.Background()
	r := newCounterRegistry(t, 0)

	id, err := r.Create(ctx)
	require.NoError(t, err)
	assert.Len(t, id, 36)

	require.NoError(t, r.Do(ctx, id, func(c *counter) error { c.n++; return nil }))

	var got int
	require.NoError(t, r.Do(ctx, id, func(c *counter) error { got = c.n; return nil }))
	assert.Equal(t, 1, got)

	n, err := r.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRegistryUnknownSession(t *testing.T) {
	r := newCounterRegistry(t, 0)
	err := r.Do(context.Background(), "nope", func(*counter) error { return nil })
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestRegistryFactoryError(t *testing.T) {
	boom := errors.New("boom")
	r := NewRegistry(func(string) (*counter, error) { return nil, boom }, 0, nil)
	defer r.Close()

	_, err := r.Create(context.Background())
	assert.ErrorIs(t, err, boom)

	n, err := r.Len(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRegistrySerializesCommands(t *testing.T) {
	ctx := context.Background()
	r := newCounterRegistry(t, 0)
	id, err := r.Create(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Do(ctx, id, func(c *counter) error { c.n++; return nil }))
		}()
	}
	wg.Wait()

	var got int
	require.NoError(t, r.Do(ctx, id, func(c *counter) error { got = c.n; return nil }))
	assert.Equal(t, 50, got)
}

func TestRegistryRecoversPanics(t *testing.T) {
	ctx := context.Background()
	r := newCounterRegistry(t, 0)
	id, err := r.Create(ctx)
	require.NoError(t, err)

	err = r.Do(ctx, id, func(*counter) error { panic("bad handler") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad handler")

	assert.NoError(t, r.Do(ctx, id, func(*counter) error { return nil }), "registry keeps running")
}

func TestRegistryEvictsIdleSessions(t *testing.T) {
	ctx := context.Background()
	r := newCounterRegistry(t, time.Hour)

	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, r.exec(ctx, func() error {
		r.now = func() time.Time { return now }
		return nil
	}))

	stale, err := r.Create(ctx)
	require.NoError(t, err)
	now = now.Add(50 * time.Minute)
	fresh, err := r.Create(ctx)
	require.NoError(t, err)

	now = now.Add(20 * time.Minute)
	require.NoError(t, r.exec(ctx, func() error { r.evict(); return nil }))

	assert.ErrorIs(t, r.Do(ctx, stale, func(*counter) error { return nil }), ErrUnknownSession)
	assert.NoError(t, r.Do(ctx, fresh, func(*counter) error { return nil }))
}

func TestRegistryDeleteAndClose(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(func(string) (*counter, error) { return &counter{}, nil }, 0, nil)

	id, err := r.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, r.Delete(ctx, id))
	require.NoError(t, r.Delete(ctx, id))
	assert.ErrorIs(t, r.Do(ctx, id, func(*counter) error { return nil }), ErrUnknownSession)

	r.Close()
	r.Close()
	_, err = r.Create(ctx)
	assert.ErrorIs(t, err, ErrRegistryClosed)
}

func TestRegistryConcurrentClose(t *testing.T) {
	r := NewRegistry(func(string) (*counter, error) { return &counter{}, nil }, 0, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NotPanics(t, r.Close)
		}()
	}
	wg.Wait()

	_, err := r.Create(context.Background())
	assert.ErrorIs(t, err, ErrRegistryClosed)
}

func TestRegistryHonorsContext(t *testing.T) {
	r := newCounterRegistry(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The registry goroutine may still accept the command, so either outcome
	// is valid; it must not block.
	_, err := r.Create(ctx)
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}
