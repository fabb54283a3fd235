package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/classtrade/classtrade/core/securities"
	"github.com/classtrade/classtrade/core/sessions"
	"github.com/classtrade/classtrade/logging"

	"github.com/gin-gonic/gin"
)

// Server is the REST front of the service.
type Server struct {
	log *logging.Logger
	Config

	srv *http.Server
}

func NewServer(
	log *logging.Logger,
	config Config,
	registry *sessions.Registry,
	secs *securities.Registry,
) *Server {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	gin.SetMode(gin.ReleaseMode)
	handlers := NewHandlers(log, registry, secs)

	return &Server{
		log:    log,
		Config: config,
		srv: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", config.IP, config.Port),
			Handler: NewRouter(handlers),
		},
	}
}

// Serve blocks until the context is cancelled, then drains in-flight
// requests within the configured grace period.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("serving REST API", logging.String("address", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down REST API")
	sctx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout.Get())
	defer cancel()
	if err := s.srv.Shutdown(sctx); err != nil {
		return err
	}
	return <-errCh
}
