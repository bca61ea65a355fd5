package member

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/souvik9998/gym-crm-sub001/internal/api"
	"github.com/souvik9998/gym-crm-sub001/internal/logger"
	"github.com/souvik9998/gym-crm-sub001/internal/membership"
	"github.com/souvik9998/gym-crm-sub001/internal/notification"
	"github.com/souvik9998/gym-crm-sub001/internal/payment"
	"github.com/souvik9998/gym-crm-sub001/internal/subscription"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// BranchParam reads the branchID path parameter, writing a 400 on failure.
func BranchParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("branchID"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid branch ID"})
		return 0, false
	}
	return id, true
}

func memberParams(c *gin.Context) (branchID, memberID int, ok bool) {
	branchID, ok = BranchParam(c)
	if !ok {
		return 0, 0, false
	}
	memberID, err := strconv.Atoi(c.Param("memberID"))
	if err != nil || memberID <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid member ID"})
		return 0, 0, false
	}
	return branchID, memberID, true
}

// WriteError maps member errors to responses.
func WriteError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrMemberNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Member not found"})
	case errors.Is(err, ErrUnknownBranch):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Branch not found"})
	case errors.Is(err, ErrPhoneExists):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrReminderNotAllowed):
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrInvalidName),
		errors.Is(err, ErrInvalidPhone),
		errors.Is(err, ErrInvalidStartDate),
		errors.Is(err, ErrInvalidSort),
		errors.Is(err, membership.ErrUnknownFilter),
		errors.Is(err, subscription.ErrUnknownPlan),
		errors.Is(err, payment.ErrInvalidMethod),
		errors.Is(err, notification.ErrUnknownType):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	default:
		logger.WithError(err).Error(fallback)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: fallback})
	}
}

// Register godoc
// @Summary      Register a member
// @Description  Creates the member with its first subscription and payment in one transaction, then queues a welcome message.
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        branchID path int true "Branch ID"
// @Param        request body member.RegisterRequest true "Member and plan"
// @Success      201 {object} member.ListItem
// @Failure      400 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /branches/{branchID}/members [post]
func (h *Handler) Register(c *gin.Context) {
	branchID, ok := BranchParam(c)
	if !ok {
		return
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	item, err := h.service.Register(c.Request.Context(), branchID, req)
	if err != nil {
		WriteError(c, err, "Failed to register member")
		return
	}

	c.JSON(http.StatusCreated, item)
}

// List godoc
// @Summary      List members
// @Description  Members with their latest subscription, filtered by status bucket.
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        branchID  path  int    true  "Branch ID"
// @Param        filter    query string false "all, active, expiring_soon, expiring_today, expiring_2days, expiring_7days, expired, expired_recent, inactive"
// @Param        pt        query bool   false "Bucket on the active PT package"
// @Param        search    query string false "Name or phone"
// @Param        sort      query string false "name, join_date or end_date; prefix - for descending"
// @Param        page      query int    false "Page (from 1)"
// @Param        page_size query int    false "Page size (max 100)"
// @Success      200 {object} member.Page
// @Failure      400 {object} api.ErrorResponse
// @Router       /branches/{branchID}/members [get]
func (h *Handler) List(c *gin.Context) {
	branchID, ok := BranchParam(c)
	if !ok {
		return
	}

	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	if errs := api.ValidateStruct(q); errs != nil {
		api.RespondWithValidationErrors(c, errs)
		return
	}

	page, err := h.service.List(c.Request.Context(), branchID, q)
	if err != nil {
		WriteError(c, err, "Failed to list members")
		return
	}

	c.JSON(http.StatusOK, page)
}

// Get godoc
// @Summary      Get a member
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        branchID path int true "Branch ID"
// @Param        memberID path int true "Member ID"
// @Success      200 {object} member.ListItem
// @Failure      404 {object} api.ErrorResponse
// @Router       /branches/{branchID}/members/{memberID} [get]
func (h *Handler) Get(c *gin.Context) {
	branchID, memberID, ok := memberParams(c)
	if !ok {
		return
	}

	item, err := h.service.Get(c.Request.Context(), branchID, memberID)
	if err != nil {
		WriteError(c, err, "Failed to fetch member")
		return
	}

	c.JSON(http.StatusOK, item)
}

// Update godoc
// @Summary      Update member details
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        branchID path int true "Branch ID"
// @Param        memberID path int true "Member ID"
// @Param        request body member.UpdateRequest true "Fields to change"
// @Success      200 {object} member.Member
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /branches/{branchID}/members/{memberID} [patch]
func (h *Handler) Update(c *gin.Context) {
	branchID, memberID, ok := memberParams(c)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	m, err := h.service.Update(c.Request.Context(), branchID, memberID, req)
	if err != nil {
		WriteError(c, err, "Failed to update member")
		return
	}

	c.JSON(http.StatusOK, m)
}

// Notify godoc
// @Summary      Send a WhatsApp message to a member
// @Description  expired_reminder is only accepted for expired memberships that are not inactive.
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        branchID path int true "Branch ID"
// @Param        memberID path int true "Member ID"
// @Param        request body member.NotifyRequest true "Message type"
// @Success      202 {object} api.MessageResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      422 {object} api.ErrorResponse
// @Router       /branches/{branchID}/members/{memberID}/notify [post]
func (h *Handler) Notify(c *gin.Context) {
	branchID, memberID, ok := memberParams(c)
	if !ok {
		return
	}

	var req NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	msgType, err := notification.ParseType(req.Type)
	if err != nil {
		WriteError(c, err, "Failed to queue message")
		return
	}

	if err := h.service.Notify(c.Request.Context(), branchID, memberID, msgType); err != nil {
		WriteError(c, err, "Failed to queue message")
		return
	}

	c.JSON(http.StatusAccepted, api.MessageResponse{Message: "Message queued"})
}
