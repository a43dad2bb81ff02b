package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"slotbook/utils"
)

// HealthReporter exposes the latest dependency snapshot.
type HealthReporter interface {
	Status() utils.HealthStatus
}

type healthResponse struct {
	Status   string              `json:"status"`
	Services *utils.HealthStatus `json:"services,omitempty"`
}

// HealthHandler reports liveness. The dependency snapshot is informational and
// never turns the response into a failure.
func HealthHandler(reporter HealthReporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := healthResponse{Status: "ok"}
		if reporter != nil {
			snapshot := reporter.Status()
			resp.Services = &snapshot
		}
		c.JSON(http.StatusOK, resp)
	}
}
