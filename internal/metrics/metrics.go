package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"transitmap.onebusaway.org/internal/dataset"
)

type Collector struct {
	reg *prometheus.Registry

	Popups          *prometheus.CounterVec // outcome label: rendered|no_service|unknown_stop|failed
	RouteSelections prometheus.Counter

	DatasetLoad     prometheus.Gauge     // seconds
	DatasetEntities *prometheus.GaugeVec // kind label: stops|routes|services|trips|shapes

	HTTPRequests *prometheus.HistogramVec // method, status labels
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Popups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transitmap_popups_total",
			Help: "Stop popups opened, by outcome.",
		}, []string{"outcome"}),
		RouteSelections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transitmap_route_selections_total",
			Help: "Total route focus transitions.",
		}),
		DatasetLoad: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transitmap_dataset_load_seconds",
			Help: "Time spent loading the dataset at startup.",
		}),
		DatasetEntities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "transitmap_dataset_entities",
			Help: "Number of loaded records per collection.",
		}, []string{"kind"}),
		HTTPRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "transitmap_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}, []string{"method", "status"}),
	}

	reg.MustRegister(c.Popups, c.RouteSelections, c.DatasetLoad, c.DatasetEntities, c.HTTPRequests)
	return c
}

// PopupOpened counts a popup by outcome.
func (c *Collector) PopupOpened(outcome string) {
	c.Popups.WithLabelValues(outcome).Inc()
}

func (c *Collector) RouteSelected(string) {
	c.RouteSelections.Inc()
}

// DatasetLoaded records the load time and collection sizes.
func (c *Collector) DatasetLoaded(counts dataset.Counts, took time.Duration) {
	c.DatasetLoad.Set(took.Seconds())
	c.DatasetEntities.WithLabelValues("stops").Set(float64(counts.Stops))
	c.DatasetEntities.WithLabelValues("routes").Set(float64(counts.Routes))
	c.DatasetEntities.WithLabelValues("services").Set(float64(counts.Services))
	c.DatasetEntities.WithLabelValues("trips").Set(float64(counts.Trips))
	c.DatasetEntities.WithLabelValues("shapes").Set(float64(counts.Shapes))
}

func (c *Collector) ObserveRequest(method string, status int, took time.Duration) {
	c.HTTPRequests.WithLabelValues(method, strconv.Itoa(status)).Observe(took.Seconds())
}

// TrackSessions exposes the live session count, read at scrape time.
func (c *Collector) TrackSessions(count func() float64) {
	c.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "transitmap_sessions_active",
		Help: "Number of live map sessions.",
	}, count))
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }
