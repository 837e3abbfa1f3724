package middleware

import (
	"errors"
	"time"

	"hs-compliance/pkg/metrics"

	"github.com/gofiber/fiber/v2"
)

// Metrics records request counts and latency per matched route template,
// so path parameters do not blow up label cardinality.
func Metrics(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		route := c.Route().Path
		if route == "" || route == "/" && c.Path() != "/" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(c.Method(), route, status, time.Since(start))
		return err
	}
}
