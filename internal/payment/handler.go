package payment

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/souvik9998/gym-crm-sub001/internal/api"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// ListByBranch godoc
// @Summary      Branch payments
// @Description  Most recent first.
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        branchID path int true "Branch ID"
// @Param        limit query int false "Page size (default 50)"
// @Param        offset query int false "Offset"
// @Success      200 {array} payment.Payment
// @Failure      400 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /branches/{branchID}/payments [get]
func (h *Handler) ListByBranch(c *gin.Context) {
	branchID, err := strconv.Atoi(c.Param("branchID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid branch ID"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	payments, err := h.repo.ListByBranch(c.Request.Context(), branchID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load payments"})
		return
	}

	c.JSON(http.StatusOK, payments)
}

// ListByMember godoc
// @Summary      Member payments
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        branchID path int true "Branch ID"
// @Param        memberID path int true "Member ID"
// @Success      200 {array} payment.Payment
// @Failure      400 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /branches/{branchID}/members/{memberID}/payments [get]
func (h *Handler) ListByMember(c *gin.Context) {
	branchID, err := strconv.Atoi(c.Param("branchID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid branch ID"})
		return
	}
	memberID, err := strconv.Atoi(c.Param("memberID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid member ID"})
		return
	}

	payments, err := h.repo.ListByMember(c.Request.Context(), branchID, memberID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load payments"})
		return
	}

	c.JSON(http.StatusOK, payments)
}
