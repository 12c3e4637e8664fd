package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/giantswarm/kubectl-gateway/internal/instrumentation"
)

// DefaultMetricsAddr is the default listen address of the metrics server.
const DefaultMetricsAddr = ":9090"

// MetricsServerConfig configures the metrics server.
type MetricsServerConfig struct {
	Addr                    string
	Enabled                 bool
	InstrumentationProvider *instrumentation.Provider
}

// MetricsServer serves /metrics on its own port so scrapes never share a
// listener with command traffic.
type MetricsServer struct {
	addr   string
	server *http.Server
}

// NewMetricsServer creates a MetricsServer.
func NewMetricsServer(config MetricsServerConfig) (*MetricsServer, error) {
	if config.InstrumentationProvider == nil {
		return nil, errors.New("instrumentation provider is required")
	}

	addr := config.Addr
	if addr == "" {
		addr = DefaultMetricsAddr
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", config.InstrumentationProvider.MetricsHandler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &MetricsServer{
		addr: addr,
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
			WriteTimeout:      DefaultWriteTimeout,
			IdleTimeout:       DefaultIdleTimeout,
		},
	}, nil
}

// Addr returns the listen address.
func (s *MetricsServer) Addr() string {
	return s.addr
}

// Start listens and serves until Shutdown. It returns http.ErrServerClosed
// after a graceful shutdown.
func (s *MetricsServer) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server. Calling it before Start is allowed;
// a later Start then returns http.ErrServerClosed immediately.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
