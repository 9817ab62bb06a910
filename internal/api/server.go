package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/stvgt/interfaces/internal/declaration"
	"github.com/stvgt/interfaces/internal/httputil"
	"github.com/stvgt/interfaces/internal/observability"
	"github.com/stvgt/interfaces/internal/read"
	"github.com/stvgt/interfaces/internal/sync"
)

// Server is the registry's HTTP API: the Declaration Parser, Component
// Sync Protocol and Read Aggregator wired behind gorilla/mux routes
// (spec §6).
type Server struct {
	router     *mux.Router
	protocol   *sync.Protocol
	aggregator *read.Aggregator
	logger     *observability.Logger
	metrics    *observability.Metrics
}

// NewServer builds a Server and registers its routes.
func NewServer(protocol *sync.Protocol, aggregator *read.Aggregator, logger *observability.Logger, metrics *observability.Metrics) *Server {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	s := &Server{
		router:     mux.NewRouter(),
		protocol:   protocol,
		aggregator: aggregator,
		logger:     logger,
		metrics:    metrics,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/v1/components/{component}/interfaces/yaml", s.setInterfaceYAML).Methods(http.MethodPut)
	s.router.HandleFunc("/api/v1/components", s.getComponents).Methods(http.MethodGet)
}

// Handler returns the fully wrapped http.Handler: recovery, request ID,
// structured logging and OpenTelemetry instrumentation around the
// gorilla/mux router.
func (s *Server) Handler() http.Handler {
	chained := httputil.Chain(
		httputil.RecoveryMiddleware(s.logger),
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(s.logger, s.metrics),
	)(s.router)
	return otelhttp.NewHandler(chained, "interface-registry")
}

// ServeHTTP implements http.Handler directly on Server, for callers that
// don't need the wrapped middleware chain (e.g. tests).
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

const requestTimeout = 30 * time.Second

// parseDeclaration is the Declaration Parser entry point, aliased here
// so handlers.go doesn't need to import the declaration package directly
// more than once.
var parseDeclaration = declaration.Parse
