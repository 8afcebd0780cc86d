package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

type HealthChecker struct {
	infra Infrastructure
}

func NewHealthChecker(infra Infrastructure) *HealthChecker {
	return &HealthChecker{
		infra: infra,
	}
}

type dependencyCheck struct {
	name string
	ping func(context.Context) error
}

// check pings every backing store concurrently and reports the first
// per-dependency failure by name
func (h *HealthChecker) check(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	deps := []dependencyCheck{
		{name: "postgres", ping: h.infra.Postgres().Ping},
		{name: "redis", ping: h.infra.Redis().Ping},
	}

	type result struct {
		name string
		err  error
	}

	results := make(chan result, len(deps))
	for _, dep := range deps {
		go func(dep dependencyCheck) {
			results <- result{name: dep.name, err: dep.ping(ctx)}
		}(dep)
	}

	failures := make(map[string]string)
	for range deps {
		r := <-results
		if r.err != nil {
			failures[r.name] = fmt.Sprintf("ping failed: %v", r.err)
		}
	}
	return failures
}

func (h *HealthChecker) Handler(c *gin.Context) {
	if failures := h.check(c.Request.Context()); len(failures) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "fail",
			"failures": failures,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "pass",
	})
}
