package service

import (
	"net/http"
	"time"

	"github.com/brimdata/wave/recordstream"
	"github.com/brimdata/wave/rserr"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const (
	DataselectPath  = "/fdsnws/dataselect/1"
	RequestIDHeader = "X-Request-ID"
)

type Config struct {
	Logger   *zap.Logger
	Registry *recordstream.Registry
	// Source is the type://address URL of the source answering queries.
	// A new source is opened for every query.
	Source string
	// Timeout is passed to the source of every query.
	Timeout            time.Duration
	CORSAllowedOrigins []string
	Version            string
	// Registerer and Gatherer back the /metrics endpoint.  When
	// Registerer is nil a private registry is used.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

type Core struct {
	conf     Config
	logger   *zap.Logger
	registry *recordstream.Registry
	handler  http.Handler
	router   *mux.Router
	metrics  metrics
}

func NewCore(conf Config) (*Core, error) {
	if conf.Logger == nil {
		conf.Logger = zap.NewNop()
	}
	if conf.Registry == nil {
		return nil, rserr.ErrInvalid("service: no source registry")
	}
	if conf.Registerer == nil {
		reg := prometheus.NewRegistry()
		conf.Registerer = reg
		conf.Gatherer = reg
	}
	if conf.Gatherer == nil {
		conf.Gatherer = prometheus.DefaultGatherer
	}
	if conf.Version == "" {
		conf.Version = "unknown"
	}
	// Sources connect lazily so opening one only checks the URL.
	src, err := conf.Registry.Open(conf.Source)
	if err != nil {
		return nil, err
	}
	if err := src.Close(); err != nil {
		return nil, err
	}
	c := &Core{
		conf:     conf,
		logger:   conf.Logger.Named("service"),
		registry: conf.Registry,
		router:   mux.NewRouter(),
		metrics:  newMetrics(conf.Registerer),
	}
	c.router.Use(requestIDMiddleware())
	c.router.Use(accessLogMiddleware(conf.Logger))
	c.router.Use(panicCatchMiddleware(conf.Logger))
	c.addRoute(DataselectPath+"/query", handleQuery).Methods("GET", "POST")
	c.addRoute(DataselectPath+"/version", handleDataselectVersion).Methods("GET")
	c.addRoute("/status", handleStatus).Methods("GET")
	c.addRoute("/version", handleVersion).Methods("GET")
	c.router.Handle("/metrics", promhttp.HandlerFor(conf.Gatherer, promhttp.HandlerOpts{}))
	c.handler = cors.New(cors.Options{
		AllowedOrigins: conf.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		ExposedHeaders: []string{RequestIDHeader},
	}).Handler(c.router)
	c.logger.Info("Started", zap.String("source", conf.Source), zap.String("version", conf.Version))
	return c, nil
}

type handlerFunc func(c *Core, w *ResponseWriter, r *Request)

func (c *Core) addRoute(path string, f handlerFunc) *mux.Route {
	return c.router.Handle(path, c.handlerFunc(f))
}

func (c *Core) handlerFunc(f handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, req := newRequest(w, r, c)
		f(c, res, req)
	}
}

func (c *Core) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.handler.ServeHTTP(w, r)
}

type metrics struct {
	queries *prometheus.CounterVec
	records prometheus.Counter
	bytes   prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) metrics {
	factory := promauto.With(reg)
	return metrics{
		queries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dataselect_queries_total",
				Help: "Number of dataselect queries by response status.",
			},
			[]string{"status"},
		),
		records: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dataselect_records_total",
				Help: "Number of records sent to dataselect clients.",
			},
		),
		bytes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dataselect_bytes_total",
				Help: "Number of record bytes sent to dataselect clients.",
			},
		),
	}
}
