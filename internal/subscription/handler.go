package subscription

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/souvik9998/gym-crm-sub001/internal/api"
	"github.com/souvik9998/gym-crm-sub001/internal/logger"
	"github.com/souvik9998/gym-crm-sub001/internal/payment"
	"github.com/souvik9998/gym-crm-sub001/internal/trainer"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func memberPath(c *gin.Context) (branchID, memberID int, ok bool) {
	branchID, err := strconv.Atoi(c.Param("branchID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid branch ID"})
		return 0, 0, false
	}
	memberID, err = strconv.Atoi(c.Param("memberID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid member ID"})
		return 0, 0, false
	}
	return branchID, memberID, true
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrUnknownMember):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Member not found"})
	case errors.Is(err, ErrNoSubscription):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Member has no subscription"})
	case errors.Is(err, trainer.ErrTrainerNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Trainer not found"})
	case errors.Is(err, ErrUnknownPlan),
		errors.Is(err, payment.ErrInvalidMethod),
		errors.Is(err, payment.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrNoActiveMembership):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
	default:
		logger.WithError(err).Error(fallback)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: fallback})
	}
}

// ListPlans godoc
// @Summary      Membership plans
// @Tags         subscriptions
// @Produce      json
// @Success      200 {array} subscription.Plan
// @Router       /plans [get]
func (h *Handler) ListPlans(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Plans())
}

// Renew godoc
// @Summary      Renew membership
// @Description  Starts the day after the current end date when it has days left, otherwise today.
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        branchID path int true "Branch ID"
// @Param        memberID path int true "Member ID"
// @Param        request body subscription.RenewRequest true "Plan and payment method"
// @Success      201 {object} subscription.RenewResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /branches/{branchID}/members/{memberID}/renew [post]
func (h *Handler) Renew(c *gin.Context) {
	branchID, memberID, ok := memberPath(c)
	if !ok {
		return
	}

	var req RenewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	resp, err := h.service.Renew(c.Request.Context(), branchID, memberID, req)
	if err != nil {
		writeError(c, err, "Failed to renew membership")
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// PurchasePT godoc
// @Summary      Add personal training
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        branchID path int true "Branch ID"
// @Param        memberID path int true "Member ID"
// @Param        request body subscription.PTRequest true "Trainer, months and payment method"
// @Success      201 {object} subscription.PTResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /branches/{branchID}/members/{memberID}/pt [post]
func (h *Handler) PurchasePT(c *gin.Context) {
	branchID, memberID, ok := memberPath(c)
	if !ok {
		return
	}

	var req PTRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	resp, err := h.service.PurchasePT(c.Request.Context(), branchID, memberID, req)
	if err != nil {
		writeError(c, err, "Failed to add personal training")
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Activate godoc
// @Summary      Move the latest subscription to active
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        branchID path int true "Branch ID"
// @Param        memberID path int true "Member ID"
// @Success      200 {object} subscription.Subscription
// @Failure      404 {object} api.ErrorResponse
// @Router       /branches/{branchID}/members/{memberID}/activate [post]
func (h *Handler) Activate(c *gin.Context) {
	branchID, memberID, ok := memberPath(c)
	if !ok {
		return
	}

	sub, err := h.service.Activate(c.Request.Context(), branchID, memberID)
	if err != nil {
		writeError(c, err, "Failed to activate subscription")
		return
	}

	c.JSON(http.StatusOK, sub)
}

// History godoc
// @Summary      Subscription history
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        branchID path int true "Branch ID"
// @Param        memberID path int true "Member ID"
// @Success      200 {object} subscription.HistoryResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /branches/{branchID}/members/{memberID}/subscriptions [get]
func (h *Handler) History(c *gin.Context) {
	branchID, memberID, ok := memberPath(c)
	if !ok {
		return
	}

	resp, err := h.service.History(c.Request.Context(), branchID, memberID)
	if err != nil {
		writeError(c, err, "Failed to load subscriptions")
		return
	}

	c.JSON(http.StatusOK, resp)
}
