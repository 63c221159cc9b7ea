package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bagdasarian/uniportal-groups/internal/handler"
	"go.uber.org/zap"
)

type Server struct {
	server *http.Server
	log    *zap.Logger
}

func NewServer(h *handler.Handler, metrics http.Handler, addr string, log *zap.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(h, metrics),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// Start блокируется до остановки сервера; штатная остановка не считается ошибкой
func (s *Server) Start() error {
	s.log.Info("server starting", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	s.log.Info("server stopped")
	return nil
}
