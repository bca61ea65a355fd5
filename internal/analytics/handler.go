package analytics

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/souvik9998/gym-crm-sub001/internal/api"
	"github.com/souvik9998/gym-crm-sub001/internal/logger"
	"github.com/souvik9998/gym-crm-sub001/internal/member"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Summary godoc
// @Summary      Branch analytics
// @Description  Membership bucket counts, revenue by payment kind and daily revenue. Cached briefly.
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Param        branchID path  int    true  "Branch ID"
// @Param        from     query string false "First day, YYYY-MM-DD (default: 29 days before to)"
// @Param        to       query string false "Last day, YYYY-MM-DD (default: today)"
// @Success      200 {object} analytics.Summary
// @Failure      400 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /branches/{branchID}/analytics [get]
func (h *Handler) Summary(c *gin.Context) {
	branchID, ok := member.BranchParam(c)
	if !ok {
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), branchID, c.Query("from"), c.Query("to"))
	if err != nil {
		if errors.Is(err, ErrInvalidRange) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
		logger.WithError(err).Error("failed to build analytics", "branch_id", branchID)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load analytics"})
		return
	}

	c.JSON(http.StatusOK, summary)
}
