package sweep

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/souvik9998/gym-crm-sub001/internal/api"
	"github.com/souvik9998/gym-crm-sub001/internal/logger"
)

type Handler struct {
	job *Job
}

func NewHandler(job *Job) *Handler {
	return &Handler{job: job}
}

// Run godoc
// @Summary      Run the deactivation sweep now
// @Description  Flips subscriptions that ended more than 30 days ago to inactive. Safe to repeat.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} sweep.Result
// @Failure      500 {object} api.ErrorResponse
// @Router       /admin/sweep [post]
func (h *Handler) Run(c *gin.Context) {
	res, err := h.job.Run(c.Request.Context())
	if err != nil {
		logger.WithError(err).Error("manual sweep failed")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Sweep failed"})
		return
	}
	c.JSON(http.StatusOK, res)
}
