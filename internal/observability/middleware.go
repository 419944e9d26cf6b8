package observability

import (
	"time"

	logs "github.com/danmuck/smplog"
	"github.com/gin-gonic/gin"
)

// RequestLogger logs each request to the metrics listener. Scrapes and
// health checks log at trace so a 1s scrape interval stays quiet at debug.
func RequestLogger(logger logs.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := routeOf(c)

		var event *logs.Event
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		case route == "/metrics" || route == "/health":
			event = logger.Trace()
		default:
			event = logger.Debug()
		}

		event.
			Str("route", route).
			Int("status", status).
			Dur("elapsed", time.Since(start)).
			Str("scraper", c.ClientIP()).
			Int("bytes", c.Writer.Size()).
			Msg("metrics listener request")
	}
}

func RequestMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		RecordHTTPRequest(c.Request.Method, routeOf(c), c.Writer.Status(), time.Since(start))
	}
}

// routeOf returns the matched route, or the raw path for unmatched requests.
func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return c.Request.URL.Path
}
