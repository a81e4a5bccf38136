package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AppName is reported by the health check.
const AppName = "護理記錄"

// HealthStatus is the health check body.
type HealthStatus struct {
	Status string `json:"status"`
	App    string `json:"app"`
}

// Health reports that the service is up.  It touches no dependency, so a
// 200 only means the process serves HTTP.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthStatus{Status: "healthy", App: AppName})
}
