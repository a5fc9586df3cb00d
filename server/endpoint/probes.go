package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/scribe/component"
)

// HealthChecker polls the registered components.
type HealthChecker func(ctx context.Context) []component.Health

type probe struct {
	status     component.HealthStatus
	components []component.Health
}

func check(c *gin.Context, checker HealthChecker) probe {
	var p probe
	if checker != nil {
		p.components = checker(c.Request.Context())
	}
	p.status = component.Overall(p.components)
	return p
}

// code is 503 once a critical component is down; degraded still serves.
func (p probe) code() int {
	if p.status == component.StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func stamp() string { return time.Now().UTC().Format(time.RFC3339) }

// Health reports the overall status together with every component.
func Health(service string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := check(c, checker)
		c.JSON(p.code(), gin.H{
			"status":     p.status,
			"service":    service,
			"timestamp":  stamp(),
			"components": p.components,
		})
	}
}

// Readiness answers the same code as Health with a ready/not_ready body.
func Readiness(service string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := check(c, checker)
		state := "ready"
		if p.code() != http.StatusOK {
			state = "not_ready"
		}
		c.JSON(p.code(), gin.H{"status": state, "service": service, "timestamp": stamp()})
	}
}
