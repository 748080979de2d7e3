// Package middleware provides Echo middleware for the device valuator API.
package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hossamelshenawy/device-valuator/internal/metrics"
)

// healthGauges maps probe paths to a 0/1 gauge. Probe and scrape paths are
// excluded from the request histograms, which they would otherwise
// dominate; probes instead drive an up/down gauge.
var healthGauges = map[string]prometheus.Gauge{
	"/healthz": metrics.HealthzUp,
	"/readyz":  metrics.ReadyzUp,
}

func operationalPath(path string) bool {
	if path == "/metrics" {
		return true
	}
	_, ok := healthGauges[path]
	return ok
}

// Metrics returns Echo middleware that records request duration and status
// per route.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}

			if operationalPath(path) {
				err := next(c)
				if gauge, ok := healthGauges[path]; ok {
					gauge.Set(probeValue(c.Response().Status))
				}
				return err
			}

			start := time.Now()
			err := next(c)
			observeRequest(c.Request().Method, path, c.Response().Status, time.Since(start))
			return err
		}
	}
}

func observeRequest(method, path string, status int, elapsed time.Duration) {
	code := strconv.Itoa(status)
	metrics.HTTPRequestDuration.WithLabelValues(method, path, code).Observe(elapsed.Seconds())
	metrics.HTTPRequestsTotal.WithLabelValues(method, path, code).Inc()
}

func probeValue(status int) float64 {
	if status >= 200 && status < 300 {
		return 1
	}
	return 0
}
