// infrastructure/health.go
package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck reports on one dependency; a nil error means "connected".
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

func HealthHandler(checks ...HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		body := gin.H{}
		up := true
		for _, check := range checks {
			if err := check.Check(ctx); err != nil {
				body[check.Name] = fmt.Sprintf("error: %v", err)
				up = false
				continue
			}
			body[check.Name] = "connected"
		}

		if !up {
			body["status"] = "DOWN"
			c.JSON(http.StatusInternalServerError, body)
			return
		}
		body["status"] = "UP"
		c.JSON(http.StatusOK, body)
	}
}
