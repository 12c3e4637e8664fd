package server

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/kubectl-gateway/internal/interpreter"
	"github.com/giantswarm/kubectl-gateway/internal/server/middleware"
)

func newTestServerContext(t *testing.T, client *stubClient, opts ...Option) *ServerContext {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	all := append([]Option{WithK8sClient(client), WithLogger(logger)}, opts...)

	sc, err := NewServerContext(context.Background(), all...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestNewServerContext(t *testing.T) {
	t.Run("requires a client", func(t *testing.T) {
		_, err := NewServerContext(context.Background())
		assert.ErrorIs(t, err, ErrMissingK8sClient)
	})

	t.Run("rejects nil dependencies", func(t *testing.T) {
		_, err := NewServerContext(context.Background(), WithK8sClient(nil))
		assert.ErrorIs(t, err, ErrMissingK8sClient)

		_, err = NewServerContext(context.Background(), WithK8sClient(&stubClient{}), WithLogger(nil))
		assert.ErrorIs(t, err, ErrMissingLogger)

		_, err = NewServerContext(context.Background(), WithK8sClient(&stubClient{}), WithConfig(nil))
		assert.ErrorIs(t, err, ErrMissingConfig)
	})

	t.Run("applies options", func(t *testing.T) {
		cache := NewMemoryAnalysisCache()
		sc := newTestServerContext(t, &stubClient{},
			WithServerName("gateway-test"),
			WithVersion("1.2.3"),
			WithAnalysisCache(cache),
		)

		assert.Equal(t, "gateway-test", sc.Config().ServerName)
		assert.Equal(t, "1.2.3", sc.Config().Version)
		assert.Same(t, cache, sc.AnalysisCache())
		assert.NotNil(t, sc.Interpreter())
		assert.NotNil(t, sc.K8sClient())
		assert.Nil(t, sc.InstrumentationProvider())
	})

	t.Run("config is copied", func(t *testing.T) {
		config := NewDefaultConfig()
		sc := newTestServerContext(t, &stubClient{}, WithConfig(config))

		config.ServerName = "changed"
		assert.Equal(t, "kubectl-gateway", sc.Config().ServerName)
	})
}

func TestExecuteCommand_Success(t *testing.T) {
	client := &stubClient{}
	cache := NewMemoryAnalysisCache()
	cache.Store(Analysis{Summary: "all pods healthy"})
	sc := newTestServerContext(t, client, WithAnalysisCache(cache))

	env := sc.ExecuteCommand(context.Background(), TransportHTTP, "kubectl scale deployment web --replicas=3")

	require.True(t, env.Success, env.Error)
	assert.Equal(t, "kubectl scale deployment web --replicas=3", env.Command)
	assert.Equal(t, 1, client.callCount())

	result, ok := env.Result.(*interpreter.ScaleResult)
	require.True(t, ok, "unexpected result type %T", env.Result)
	assert.Equal(t, int32(3), result.Replicas)

	_, cached := cache.Last()
	assert.False(t, cached, "successful commands invalidate the analysis")
	assert.Equal(t, uint64(1), cache.Invalidations())
}

func TestExecuteCommand_ReadsAlsoInvalidate(t *testing.T) {
	cache := NewMemoryAnalysisCache()
	sc := newTestServerContext(t, &stubClient{}, WithAnalysisCache(cache))

	env := sc.ExecuteCommand(context.Background(), TransportMCP, "kubectl get pods -n prod")

	require.True(t, env.Success, env.Error)
	assert.Equal(t, uint64(1), cache.Invalidations())
}

func TestExecuteCommand_ParseFailure(t *testing.T) {
	client := &stubClient{}
	cache := NewMemoryAnalysisCache()
	sc := newTestServerContext(t, client, WithAnalysisCache(cache))

	env := sc.ExecuteCommand(context.Background(), TransportHTTP, "kubectl delete pod web-0")

	assert.False(t, env.Success)
	assert.Equal(t, interpreter.CodeUnsupportedVerb, env.Code)
	assert.Zero(t, client.callCount())
	assert.Zero(t, cache.Invalidations())
}

func TestExecuteCommand_UpstreamFailure(t *testing.T) {
	client := &stubClient{err: errors.New("deployments.apps \"web\" not found")}
	cache := NewMemoryAnalysisCache()
	sc := newTestServerContext(t, client, WithAnalysisCache(cache))

	env := sc.ExecuteCommand(context.Background(), TransportHTTP, "kubectl rollout restart deployment/web")

	assert.False(t, env.Success)
	assert.Equal(t, interpreter.CodeUpstreamOperationFailure, env.Code)
	assert.Contains(t, env.Error, "not found")
	assert.Equal(t, 1, client.callCount())
	assert.Zero(t, cache.Invalidations())
}

func TestExecuteCommand_AfterShutdown(t *testing.T) {
	client := &stubClient{}
	sc := newTestServerContext(t, client)
	require.NoError(t, sc.Shutdown())

	env := sc.ExecuteCommand(context.Background(), TransportLocal, "kubectl get pods")

	assert.False(t, env.Success)
	assert.Equal(t, interpreter.CodeUpstreamOperationFailure, env.Code)
	assert.Equal(t, ErrServerShutdown.Error(), env.Error)
	assert.Zero(t, client.callCount())
}

func TestExecuteCommand_LogsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	sc, err := NewServerContext(context.Background(), WithK8sClient(&stubClient{}), WithLogger(logger))
	require.NoError(t, err)

	ctx := middleware.WithRequestID(context.Background(), "req-42")
	sc.ExecuteCommand(ctx, TransportHTTP, "kubectl set env deployment/web API_TOKEN=hunter2")

	out := buf.String()
	assert.Contains(t, out, "request_id=req-42")
	assert.Contains(t, out, "transport=http")
	assert.Contains(t, out, "API_TOKEN=<redacted>")
	assert.NotContains(t, out, "hunter2")
}

func TestServerContext_Shutdown(t *testing.T) {
	sc := newTestServerContext(t, &stubClient{})

	assert.False(t, sc.IsShutdown())
	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())
	assert.Error(t, sc.Context().Err())

	// Second shutdown is a no-op.
	assert.NoError(t, sc.Shutdown())
}
