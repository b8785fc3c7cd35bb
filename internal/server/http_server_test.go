package server_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pilab.hu/connections/internal/server"
)

type pingAPI struct{}

func (pingAPI) RegisterRoutes(e *echo.Echo) {
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
	e.GET("/boom", func(echo.Context) error { return errors.New("boom") })
}

func serve(t *testing.T, handler http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestNewHTTPServer_Endpoints(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_requests_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	srv, _ := server.NewHTTPServer(server.Options{Addr: ":0", Gatherer: reg}, pingAPI{})

	rec := serve(t, srv.Handler, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, srv.Handler, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, srv.Handler, "/ping")
	assert.Equal(t, "pong", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = serve(t, srv.Handler, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_requests_total")

	rec = serve(t, srv.Handler, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestNewHTTPServer_NotReady(t *testing.T) {
	srv, _ := server.NewHTTPServer(server.Options{
		Ready: func(context.Context) error { return errors.New("mongo down") },
	})

	rec := serve(t, srv.Handler, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = serve(t, srv.Handler, "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRun_ShutsDownAndClosesInOrder(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())

	srv, _ := server.NewHTTPServer(server.Options{Addr: addr})

	ctx, cancel := context.WithCancel(context.Background())
	var closed []string
	closeErr := errors.New("close failed")

	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx, srv, time.Second,
			func(context.Context) error { closed = append(closed, "first"); return nil },
			func(context.Context) error { closed = append(closed, "second"); return closeErr },
		)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, closeErr)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Equal(t, []string{"first", "second"}, closed)
}
