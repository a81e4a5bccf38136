package middleware

import (
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// sensitiveQueryParams are masked before a URI is logged.
var sensitiveQueryParams = []string{"password", "token", "refresh_token", "secret"}

// HTTPLogger logs one structured logrus entry per request.
func HTTPLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			if err := next(c); err != nil {
				c.Error(err)
			}

			latency := time.Since(start)
			entry := logrus.WithFields(logrus.Fields{
				"method":        req.Method,
				"path":          req.URL.Path,
				"uri":           maskSensitiveQueryParams(req.RequestURI),
				"status":        res.Status,
				"bytes_out":     strconv.FormatInt(res.Size, 10),
				"latency_human": latency.String(),
				"remote_ip":     c.RealIP(),
				"user_agent":    req.UserAgent(),
				"request_id":    res.Header().Get(echo.HeaderXRequestID),
			})
			if u := Username(c); u != "" {
				entry = entry.WithField("user", u)
			}
			switch {
			case res.Status >= 500:
				entry.Error("http request")
			case res.Status >= 400:
				entry.Warn("http request")
			default:
				entry.Info("http request")
			}
			return nil
		}
	}
}

// maskSensitiveQueryParams replaces the values of sensitive query parameters
// with "***".  Unparsable URIs are returned unchanged.
func maskSensitiveQueryParams(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	q := u.Query()
	masked := false
	for _, p := range sensitiveQueryParams {
		if q.Has(p) {
			q.Set(p, "***")
			masked = true
		}
	}
	if !masked {
		return uri
	}
	u.RawQuery = q.Encode()
	return u.String()
}
