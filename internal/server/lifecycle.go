package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"
)

// Closer releases one resource on shutdown.
type Closer func(ctx context.Context) error

// Run serves srv until ctx is cancelled, then shuts it down within timeout and runs the closers
// in order. All shutdown failures are returned together.
func Run(ctx context.Context, srv *http.Server, timeout time.Duration, closers ...Closer) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("HTTP server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	log.Info().Msg("Shutting down HTTP server")

	err := multierr.Append(runErr, srv.Shutdown(shutdownCtx))
	for _, closer := range closers {
		err = multierr.Append(err, closer(shutdownCtx))
	}
	return err
}
