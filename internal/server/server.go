// Package server runs a single connection through parsing, routing and writing the response.
package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/google/uuid"
	"github.com/indigo-web/twotter/config"
	"github.com/indigo-web/twotter/http"
	"github.com/indigo-web/twotter/http/status"
	"github.com/indigo-web/twotter/internal/protocol/http1"
)

// Router produces a response for every request. OnError may be called with a nil request
// if parsing didn't get far enough to produce one.
type Router interface {
	OnRequest(request *http.Request) *http.Response
	OnError(request *http.Request, err error) *http.Response
}

type Server struct {
	router Router
	cfg    config.NET
	logger *slog.Logger
}

func New(router Router, cfg config.NET, logger *slog.Logger) *Server {
	return &Server{
		router: router,
		cfg:    cfg,
		logger: logger,
	}
}

// Serve handles the only request the connection carries. The connection is never closed
// here, this is up to the caller.
func (s *Server) Serve(conn net.Conn) {
	logger := s.logger.With(
		slog.String("conn", uuid.NewString()),
		slog.String("remote", remoteOf(conn)),
	)

	defer func() {
		if p := recover(); p != nil {
			logger.Error("connection handler panicked", slog.String("panic", fmt.Sprint(p)))
		}
	}()

	response := s.handle(conn, logger)
	if response == nil {
		return
	}

	if err := http1.NewSerializer(conn, s.cfg.FileChunkSize).Write(response); err != nil {
		logger.Debug("writing response", slog.String("error", err.Error()))
	}
}

// handle returns nil if there's nobody left to respond to.
func (s *Server) handle(conn net.Conn, logger *slog.Logger) *http.Response {
	request, err := http1.NewParser(conn, s.cfg.ReadBufferSize).Parse()
	switch {
	case err == nil:
	case errors.Is(err, http1.ErrTransport):
		logger.Debug("peer went away", slog.String("error", err.Error()))
		return nil
	default:
		logger.Info("malformed request", slog.String("error", err.Error()))
		return notNil(s.router.OnError(request, err))
	}

	request.Remote = conn.RemoteAddr()
	logger.Debug("request", slog.String("target", request.Target))

	return notNil(s.router.OnRequest(request))
}

func notNil(response *http.Response) *http.Response {
	if response != nil {
		return response
	}

	return http.NewResponse().Error(status.ErrInternalServerError)
}

func remoteOf(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}

	return "unknown"
}
