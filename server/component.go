package server

import (
	"context"
	"net"
	"strconv"

	"github.com/kbukum/scribe/component"
)

var (
	_ component.Component   = (*ServerComponent)(nil)
	_ component.Describable = (*ServerComponent)(nil)
)

// ServerComponent runs a Server under the bootstrap lifecycle.
type ServerComponent struct {
	server *Server
}

// NewComponent adapts s to component.Component.
func NewComponent(s *Server) *ServerComponent {
	return &ServerComponent{server: s}
}

func (sc *ServerComponent) Name() string { return "http-server" }

// Start binds the listener, then logs the route table.
func (sc *ServerComponent) Start(ctx context.Context) error {
	if err := sc.server.Start(ctx); err != nil {
		return err
	}
	sc.server.LogRoutes()
	return nil
}

func (sc *ServerComponent) Stop(ctx context.Context) error {
	return sc.server.Stop(ctx)
}

// Health is critical: without a listener there is no API.
func (sc *ServerComponent) Health(context.Context) component.Health {
	h := component.Health{Name: sc.Name(), Status: component.StatusHealthy, Critical: true}
	if !sc.server.listening() {
		h.Status, h.Message = component.StatusUnhealthy, "not listening"
	}
	return h
}

func (sc *ServerComponent) Describe() component.Description {
	cfg := sc.server.cfg
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)) + " auth=" + cfg.Auth.Describe(),
		Port:    cfg.Port,
	}
}
