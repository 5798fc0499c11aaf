package render

// EventKind names a user-facing trigger.
type EventKind string

const (
	StopClicked     EventKind = "stop_clicked"
	RouteChosen     EventKind = "route_chosen"
	CloseLine       EventKind = "close_line"
	ResetView       EventKind = "reset_view"
	Located         EventKind = "located"
	LocateFailed    EventKind = "locate_failed"
	DateTimeChanged EventKind = "date_time_changed"
)

// Event carries the payload of a trigger. Only the fields relevant to Kind
// are set.
type Event struct {
	Kind    EventKind
	StopID  string
	RouteID string
	Date    string
	Clock   string
	At      LatLng
	Message string
}

type Handler func(Event)

// Events is where controllers subscribe to triggers.
type Events interface {
	On(kind EventKind, h Handler)
}

// Bus dispatches events to registered handlers in registration order.
type Bus struct {
	handlers map[EventKind][]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[EventKind][]Handler)}
}

func (b *Bus) On(kind EventKind, h Handler) {
	b.handlers[kind] = append(b.handlers[kind], h)
}

// Emit runs the handlers for e.Kind and reports whether any was registered.
func (b *Bus) Emit(e Event) bool {
	handlers := b.handlers[e.Kind]
	for _, h := range handlers {
		h(e)
	}
	return len(handlers) > 0
}
