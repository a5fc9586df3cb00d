package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/scribe/version"
)

var started = time.Now()

// Liveness answers 200 as long as the process can serve HTTP. Backend
// reachability is reported by Health and Readiness instead.
func Liveness(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive", "service": serviceName})
	}
}

// Version reports the build of the running binary.
func Version() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, version.Get())
	}
}

// Info reports the build plus service name and uptime.
func Info(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": serviceName,
			"build":   version.Get(),
			"uptime":  time.Since(started).Truncate(time.Second).String(),
		})
	}
}
