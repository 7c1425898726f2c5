// README: API server lifecycle: serves the router until the context ends.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"kwenda/internal/logger"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	srv *http.Server
	log logger.Logger
}

func NewServer(addr string, deps RouterDeps) *Server {
	log := deps.Log
	if log == nil {
		log = logger.Nop{}
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(deps),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Run blocks until ctx is cancelled or the listener fails, then drains
// in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Infof("shutting down")
	return s.srv.Shutdown(shutdownCtx)
}
