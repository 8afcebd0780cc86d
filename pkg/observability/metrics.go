package observability

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PrometheusHandler exposes the metrics endpoint through Gin
func PrometheusHandler(handler http.Handler) gin.HandlerFunc {
	if handler == nil {
		return func(c *gin.Context) {
			c.String(http.StatusServiceUnavailable, "metrics not initialized")
		}
	}
	return gin.WrapH(handler)
}
