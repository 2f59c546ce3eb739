// Package twotter wires the whole server together: the listener, the per-connection handling
// and the router talking to a portal.
package twotter

import (
	"log/slog"
	"net"
	"os"

	"github.com/indigo-web/twotter/config"
	"github.com/indigo-web/twotter/internal/server"
	"github.com/indigo-web/twotter/portal"
	"github.com/indigo-web/twotter/router"
	"github.com/indigo-web/twotter/transport"
)

type App struct {
	portal    portal.Portal
	cfg       *config.Config
	logger    *slog.Logger
	transport transport.Transport
	hooks     hooks
}

// New returns a new App instance backed by the portal.
func New(p portal.Portal) *App {
	return &App{
		portal: p,
		cfg:    config.Default(),
	}
}

// Tune replaces the default config.
func (a *App) Tune(cfg *config.Config) *App {
	a.cfg = cfg
	return a
}

// Logger replaces the default logger, which writes text records into stderr at the
// configured level.
func (a *App) Logger(logger *slog.Logger) *App {
	a.logger = logger
	return a
}

// NotifyOnBind calls the callback with the port as soon as the listener is bound. The server
// may not be accepting connections yet at that moment, but they won't be refused.
func (a *App) NotifyOnBind(cb func(port int)) *App {
	a.hooks.OnBind = cb
	return a
}

// NotifyOnStop calls the callback once the server doesn't accept connections anymore.
func (a *App) NotifyOnStop(cb func()) *App {
	a.hooks.OnStop = cb
	return a
}

// Serve binds the first free port of the configured range and serves connections until
// Stop is called and every accepted connection is done. Failing to bind any port is the
// only error ever returned.
func (a *App) Serve() error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	if a.logger == nil {
		a.logger = a.cfg.Log.NewLogger(os.Stderr)
	}

	a.transport = transport.NewTCP(a.logger)
	port, err := a.transport.Bind(a.cfg.NET.Host, a.cfg.Ports.First, a.cfg.Ports.Last)
	if err != nil {
		return err
	}

	a.logger.Info("running", slog.Int("port", port))
	if a.hooks.OnBind != nil {
		a.hooks.OnBind(port)
	}

	r := router.New(a.portal, a.cfg.Paths.Templates, a.logger)
	srv := server.New(r, a.cfg.NET, a.logger)

	err = a.transport.Listen(func(conn net.Conn) {
		srv.Serve(conn)
	})

	a.transport.Wait()

	if a.hooks.OnStop != nil {
		a.hooks.OnStop()
	}

	return err
}

// Stop stops accepting new connections. Serve returns once the connections being served
// are finished.
func (a *App) Stop() {
	if a.transport != nil {
		a.transport.Stop()
	}
}

type hooks struct {
	OnBind func(port int)
	OnStop func()
}
