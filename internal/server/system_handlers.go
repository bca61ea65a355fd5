package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/souvik9998/gym-crm-sub001/internal/api"
)

type QueueResponse struct {
	Pending int64 `json:"pending" example:"3"`
}

type queueReporter interface {
	QueueLength(ctx context.Context) int64
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200 {object} api.HealthResponse
// @Router       /health [get]
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
}

// @Summary      Pending notifications
// @Description  Number of WhatsApp messages waiting in the delivery queue
// @Tags         system
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} QueueResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Router       /admin/notifications/queue [get]
func NotificationQueue(queue queueReporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, QueueResponse{Pending: queue.QueueLength(c.Request.Context())})
	}
}

// @Summary      Prometheus metrics
// @Description  Exposes Prometheus metrics in text format
// @Tags         system
// @Produce      text/plain
// @Success      200 {string} string
// @Router       /metrics [get]
func Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
