package branch

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/souvik9998/gym-crm-sub001/internal/api"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// @Summary      Create a branch
// @Description  Admin-only: open a new branch
// @Tags         admin,branches
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body branch.CreateBranchRequest true "Branch payload"
// @Success      201 {object} branch.Branch
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /admin/branches [post]
func (h *Handler) CreateBranch(c *gin.Context) {
	var req CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	b, err := h.service.CreateBranch(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidName) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create branch"})
		return
	}

	c.JSON(http.StatusCreated, b)
}

// @Summary      List branches
// @Tags         admin,branches
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} branch.Branch
// @Failure      401 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /admin/branches [get]
func (h *Handler) ListBranches(c *gin.Context) {
	branches, err := h.service.ListBranches(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch branches"})
		return
	}

	c.JSON(http.StatusOK, branches)
}

// @Summary      Get a branch
// @Tags         branches
// @Produce      json
// @Security     BearerAuth
// @Param        branchID path int true "Branch ID"
// @Success      200 {object} branch.Branch
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /branches/{branchID} [get]
func (h *Handler) GetBranch(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("branchID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid branch ID"})
		return
	}

	b, err := h.service.GetBranch(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrBranchNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Branch not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch branch"})
		return
	}

	c.JSON(http.StatusOK, b)
}
