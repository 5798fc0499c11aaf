package dataset

// Dataset is the immutable snapshot of the five resources. Iteration order of
// every collection is the order in which the records were added.
type Dataset struct {
	stops      map[string]*Stop
	stopIDs    []string
	routes     map[string]*Route
	routeIDs   []string
	services   map[string]*Service
	serviceIDs []string
	trips      map[string]*Trip
	tripOrder  []*Trip
	shapes     map[string]*Shape
	shapeIDs   []string
}

// Builder assembles a Dataset. A record added twice keeps its first position
// and its last value.
type Builder struct {
	ds *Dataset
}

func NewBuilder() *Builder {
	return &Builder{ds: &Dataset{
		stops:    make(map[string]*Stop),
		routes:   make(map[string]*Route),
		services: make(map[string]*Service),
		trips:    make(map[string]*Trip),
		shapes:   make(map[string]*Shape),
	}}
}

func (b *Builder) AddStop(s Stop) *Builder {
	if _, ok := b.ds.stops[s.ID]; !ok {
		b.ds.stopIDs = append(b.ds.stopIDs, s.ID)
	}
	b.ds.stops[s.ID] = &s
	return b
}

func (b *Builder) AddRoute(r Route) *Builder {
	if _, ok := b.ds.routes[r.ID]; !ok {
		b.ds.routeIDs = append(b.ds.routeIDs, r.ID)
	}
	b.ds.routes[r.ID] = &r
	return b
}

func (b *Builder) AddService(s Service) *Builder {
	if _, ok := b.ds.services[s.ID]; !ok {
		b.ds.serviceIDs = append(b.ds.serviceIDs, s.ID)
	}
	b.ds.services[s.ID] = &s
	return b
}

func (b *Builder) AddTrip(t Trip) *Builder {
	if existing, ok := b.ds.trips[t.ID]; ok {
		*existing = t
		return b
	}
	trip := &t
	b.ds.trips[t.ID] = trip
	b.ds.tripOrder = append(b.ds.tripOrder, trip)
	return b
}

func (b *Builder) AddShape(s Shape) *Builder {
	if _, ok := b.ds.shapes[s.ID]; !ok {
		b.ds.shapeIDs = append(b.ds.shapeIDs, s.ID)
	}
	b.ds.shapes[s.ID] = &s
	return b
}

// Build returns the dataset. The builder must not be used afterwards.
func (b *Builder) Build() *Dataset {
	ds := b.ds
	b.ds = nil
	return ds
}

func (ds *Dataset) Stop(id string) *Stop       { return ds.stops[id] }
func (ds *Dataset) Route(id string) *Route     { return ds.routes[id] }
func (ds *Dataset) Service(id string) *Service { return ds.services[id] }
func (ds *Dataset) Trip(id string) *Trip       { return ds.trips[id] }
func (ds *Dataset) Shape(id string) *Shape {
	if id == "" {
		return nil
	}
	return ds.shapes[id]
}

// StopIDs returns stop ids in load order.
func (ds *Dataset) StopIDs() []string { return ds.stopIDs }

func (ds *Dataset) RouteIDs() []string   { return ds.routeIDs }
func (ds *Dataset) ServiceIDs() []string { return ds.serviceIDs }
func (ds *Dataset) ShapeIDs() []string   { return ds.shapeIDs }

// Trips returns every trip in load order. Callers must not modify the slice.
func (ds *Dataset) Trips() []*Trip { return ds.tripOrder }

// Counts summarizes the dataset for logging and metrics.
type Counts struct {
	Stops    int
	Routes   int
	Services int
	Trips    int
	Shapes   int
}

func (ds *Dataset) Counts() Counts {
	return Counts{
		Stops:    len(ds.stops),
		Routes:   len(ds.routes),
		Services: len(ds.services),
		Trips:    len(ds.tripOrder),
		Shapes:   len(ds.shapes),
	}
}
