package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"time"

	"conhash/pkg/cluster"
	"conhash/pkg/metrics"
	"conhash/pkg/ringerrors"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	contentTypeJSON        = "application/json"
	defaultHTTPPort        = "8080"
	defaultShutdownTimeout = time.Second * 5
	maxBodyBytes           = 1 << 20
)

// Server exposes a Router over HTTP: lookups, node management and stats.
type Server struct {
	router            *cluster.Router
	metrics           metrics.Collector
	httpServer        *http.Server
	URL               string
	addr              string
	readHeaderTimeout time.Duration
}

// NewServer creates a new server instance
func NewServer(router *cluster.Router, port string) *Server {
	if port == "" {
		port = defaultHTTPPort
	}
	return &Server{
		router:            router,
		metrics:           metrics.NewRegistry(),
		URL:               "http://localhost:" + port,
		addr:              ":" + port,
		readHeaderTimeout: time.Second,
	}
}

// SetCollector replaces the in-memory registry. /metrics renders the
// collector only if it implements io.WriterTo. Must be called before Start.
func (s *Server) SetCollector(c metrics.Collector) {
	if c != nil {
		s.metrics = c
	}
}

// SetReadHeaderTimeout must be called before Start.
func (s *Server) SetReadHeaderTimeout(d time.Duration) {
	if d > 0 {
		s.readHeaderTimeout = d
	}
}

// Start starts the server
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.readHeaderTimeout,
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("HTTP server started", "addr", s.URL)
	return nil
}

// Stop stops the server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.countRequests)

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)
	r.Get("/api/lookup", s.handleLookup)
	r.Route("/api/nodes", func(r chi.Router) {
		r.Get("/", s.handleNodes)
		r.Post("/", s.handleAddNodes)
		r.Delete("/", s.handleRemoveNodes)
		r.Get("/count", s.handleCount)
	})

	return r
}

// countRequests records http_requests_total by route pattern and status code.
func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		s.metrics.IncCounter("http_requests_total", map[string]string{
			"method": r.Method,
			"route":  route,
			"code":   strconv.Itoa(ww.Status()),
		}, 1)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("Error encoding response", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, NewOKResponse())
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	st := s.router.Stats()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_, _ = fmt.Fprintf(w, "# conhash ring metrics\n")
	// ноды в лексическом порядке, чтобы вывод был стабильным
	for _, id := range slices.Sorted(maps.Keys(st.Weights)) {
		_, _ = fmt.Fprintf(w, "ring_node_positions{node=%q} %d\n", id, st.Owned[id])
		_, _ = fmt.Fprintf(w, "ring_node_weight{node=%q} %d\n", id, st.Weights[id])
	}
	s.metrics.SetGauge("ring_nodes", nil, float64(st.Nodes))
	s.metrics.SetGauge("ring_positions", nil, float64(st.Positions))
	if wt, ok := s.metrics.(io.WriterTo); ok {
		_, _ = wt.WriteTo(w)
	}
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		s.writeJSON(w, http.StatusBadRequest, NewErrorResponse("Missing key"))
		return
	}

	replicas := 0
	if raw := r.URL.Query().Get("replicas"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeJSON(w, http.StatusBadRequest, NewErrorResponse("Invalid replicas "+strconv.Quote(raw)))
			return
		}
		replicas = n
	}

	loc, owners, ok := s.router.LocateOwners(key, replicas)
	if !ok {
		s.metrics.IncCounter("ring_lookups_total", map[string]string{"result": "miss"}, 1)
		s.writeJSON(w, http.StatusNotFound, NewErrorResponse(ringerrors.ErrEmptyRing.Error()))
		return
	}
	s.metrics.IncCounter("ring_lookups_total", map[string]string{"result": "hit"}, 1)
	resp := NewLookupResponse(loc.Node, loc.Key, loc.Position)
	resp.Nodes = owners
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	var (
		nodes []string
		err   error
	)
	switch order := r.URL.Query().Get("order"); order {
	case "", "numeric":
		nodes, err = s.router.AllNodes()
	case "lexical":
		nodes = s.router.Nodes()
	default:
		s.writeJSON(w, http.StatusBadRequest, NewErrorResponse("Unknown order "+strconv.Quote(order)))
		return
	}
	if err != nil {
		s.writeJSON(w, http.StatusUnprocessableEntity, NewErrorResponse(err.Error()))
		return
	}

	checksum := strconv.FormatUint(s.router.Stats().Checksum, 16)
	s.writeJSON(w, http.StatusOK, NewNodesResponse(nodes, checksum))
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, NewCountResponse(s.router.NodesCount()))
}

func (s *Server) handleAddNodes(w http.ResponseWriter, r *http.Request) {
	spec, ok := s.decodeBody(w, r)
	if !ok {
		return
	}
	if err := s.router.AddNodes(spec); err != nil {
		s.writeMutationError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, NewCountResponse(s.router.NodesCount()))
}

func (s *Server) handleRemoveNodes(w http.ResponseWriter, r *http.Request) {
	spec, ok := s.decodeBody(w, r)
	if !ok {
		return
	}
	if err := s.router.RemoveNodes(spec); err != nil {
		s.writeMutationError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, NewCountResponse(s.router.NodesCount()))
}

// decodeBody reads one JSON value of any shape; shape checks belong to the ring.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request) (any, bool) {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	var spec any
	if err := dec.Decode(&spec); err != nil {
		s.writeJSON(w, http.StatusBadRequest, NewErrorResponse("Invalid JSON body: "+err.Error()))
		return nil, false
	}
	return spec, true
}

func (s *Server) writeMutationError(w http.ResponseWriter, err error) {
	if errors.Is(err, ringerrors.ErrInvalidArgument) {
		s.writeJSON(w, http.StatusBadRequest, NewErrorResponse(err.Error()))
		return
	}
	slog.Error("ring mutation failed", "error", err)
	s.writeJSON(w, http.StatusInternalServerError, NewErrorResponse(err.Error()))
}
