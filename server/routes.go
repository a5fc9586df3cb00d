package server

import (
	"cmp"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/scribe/logger"
)

var probePaths = []string{"/health", "/alive", "/ready", "/info", "/version", "/metrics"}

var methodRank = map[string]int{"GET": 0, "POST": 1, "PUT": 2, "PATCH": 3, "DELETE": 4}

// LogRoutes logs the Gin routes, API routes ahead of the probes.
func (s *Server) LogRoutes() {
	routes := s.engine.Routes()
	slices.SortFunc(routes, compareRoutes)
	for _, r := range routes {
		s.log.Debug("route", logger.Fields(
			"method", r.Method,
			"path", r.Path,
			"handler", handlerName(r.Handler),
		))
	}
	s.log.Info("routes registered", logger.Fields("count", len(routes)))
}

func compareRoutes(a, b gin.RouteInfo) int {
	pa, pb := slices.Contains(probePaths, a.Path), slices.Contains(probePaths, b.Path)
	if pa != pb {
		if pa {
			return 1
		}
		return -1
	}
	return cmp.Or(
		strings.Compare(a.Path, b.Path),
		cmp.Compare(rank(a.Method), rank(b.Method)),
	)
}

func rank(method string) int {
	if r, ok := methodRank[method]; ok {
		return r
	}
	return len(methodRank)
}

// handlerName shortens Gin's symbol names:
// "github.com/kbukum/scribe/api.(*Handler).CreateBatch-fm" becomes
// "Handler.CreateBatch" and ".../endpoint.Health.func1" becomes "Health".
func handlerName(symbol string) string {
	name := strings.TrimSuffix(symbol, "-fm")
	name = name[strings.LastIndex(name, "/")+1:]
	name = strings.NewReplacer("(*", "", ")", "").Replace(name)

	parts := strings.Split(name, ".")
	for len(parts) > 1 && strings.HasPrefix(parts[len(parts)-1], "func") {
		parts = parts[:len(parts)-1]
	}
	if len(parts) > 1 {
		parts = parts[1:] // package
	}
	return strings.Join(parts, ".")
}
