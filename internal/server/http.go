package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/giantswarm/kubectl-gateway/internal/interpreter"
	"github.com/giantswarm/kubectl-gateway/internal/server/middleware"
)

const (
	// ExecPath is the command endpoint.
	ExecPath = "/api/cli/exec"

	// DefaultMCPEndpoint is the streamable HTTP MCP endpoint.
	DefaultMCPEndpoint = "/mcp"

	// DefaultMaxRequestBytes caps command request bodies.
	DefaultMaxRequestBytes = 1 << 20

	// DefaultReadHeaderTimeout is the default timeout for reading request headers
	DefaultReadHeaderTimeout = 10 * time.Second

	// DefaultWriteTimeout is the default timeout for writing responses (covers slow exec calls)
	DefaultWriteTimeout = 120 * time.Second

	// DefaultIdleTimeout is the default idle timeout for keepalive connections
	DefaultIdleTimeout = 120 * time.Second

	// DefaultShutdownTimeout is the default timeout for graceful server shutdown
	DefaultShutdownTimeout = 30 * time.Second
)

// ExecRequest is the body of a command request.
type ExecRequest struct {
	Command string `json:"command"`
}

// StatusForEnvelope maps an envelope to its HTTP status: 200 on success,
// 400 for malformed or unsupported commands and 500 when the cluster call
// failed.
func StatusForEnvelope(env interpreter.Envelope) int {
	switch {
	case env.Success:
		return http.StatusOK
	case env.Code.ClientCaused():
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ExecHandler serves POST /api/cli/exec.
func (sc *ServerContext) ExecHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed,
				fmt.Sprintf("method %s is not allowed, use POST", r.Method))
			return
		}

		var req ExecRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			status := http.StatusBadRequest
			message := fmt.Sprintf("invalid request body: %v", err)

			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				status = http.StatusRequestEntityTooLarge
				message = fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit)
			}

			respondJSON(w, status, interpreter.Envelope{
				Success: false,
				Error:   message,
				Code:    interpreter.CodeInvalidSyntax,
			})
			return
		}

		env := sc.ExecuteCommand(r.Context(), TransportHTTP, req.Command)
		respondJSON(w, StatusForEnvelope(env), env)
	})
}

// HTTPConfig configures the HTTP handler tree.
type HTTPConfig struct {
	// MCPHandler is mounted at MCPEndpoint when set.
	MCPHandler  http.Handler
	MCPEndpoint string

	RateLimit       middleware.RateLimitConfig
	AllowedOrigins  []string
	EnableHSTS      bool
	MaxRequestBytes int64
}

// NewHTTPHandler builds the gateway's HTTP handler: the command endpoint,
// health probes and optionally MCP, behind the middleware chain.
func NewHTTPHandler(sc *ServerContext, health *HealthChecker, config HTTPConfig) http.Handler {
	if config.MCPEndpoint == "" {
		config.MCPEndpoint = DefaultMCPEndpoint
	}
	if config.MaxRequestBytes == 0 {
		config.MaxRequestBytes = DefaultMaxRequestBytes
	}

	mux := http.NewServeMux()
	mux.Handle(ExecPath, sc.ExecHandler())
	health.RegisterHealthEndpoints(mux)

	routes := []string{ExecPath, "/healthz", "/readyz", "/healthz/detailed"}
	if config.MCPHandler != nil {
		mux.Handle(config.MCPEndpoint, config.MCPHandler)
		routes = append(routes, config.MCPEndpoint)
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, ErrCodeNotFound, fmt.Sprintf("no route for %s", r.URL.Path))
	})

	config.RateLimit.ExemptPaths = append(config.RateLimit.ExemptPaths, "/healthz", "/readyz")
	limiter := middleware.NewRateLimiter(config.RateLimit)
	provider := sc.InstrumentationProvider()

	var handler http.Handler = mux
	handler = middleware.MaxRequestSize(config.MaxRequestBytes)(handler)
	handler = middleware.RateLimit(limiter, provider)(handler)
	handler = middleware.HTTPMetrics(provider, routes...)(handler)
	handler = middleware.CORS(config.AllowedOrigins)(handler)
	handler = middleware.SecurityHeaders(config.EnableHSTS)(handler)
	handler = middleware.RequestID(handler)

	return handler
}

// NewHTTPServer wraps handler in an http.Server with the default timeouts.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}
}
