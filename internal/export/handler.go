package export

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/souvik9998/gym-crm-sub001/internal/api"
	"github.com/souvik9998/gym-crm-sub001/internal/logger"
	"github.com/souvik9998/gym-crm-sub001/internal/member"
)

type Handler struct {
	members member.Service
}

func NewHandler(members member.Service) *Handler {
	return &Handler{members: members}
}

// Members godoc
// @Summary      Export members to Excel
// @Description  Applies the same filter, search and sort as the member list, without paging.
// @Tags         members
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        branchID path  int    true  "Branch ID"
// @Param        filter   query string false "Status bucket"
// @Param        pt       query bool   false "Bucket on the active PT package"
// @Param        search   query string false "Name or phone"
// @Param        sort     query string false "name, join_date or end_date"
// @Success      200 {file} file
// @Failure      400 {object} api.ErrorResponse
// @Router       /branches/{branchID}/members/export [get]
func (h *Handler) Members(c *gin.Context) {
	branchID, ok := member.BranchParam(c)
	if !ok {
		return
	}

	var q member.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	if errs := api.ValidateStruct(q); errs != nil {
		api.RespondWithValidationErrors(c, errs)
		return
	}

	items, err := h.members.Filtered(c.Request.Context(), branchID, q)
	if err != nil {
		member.WriteError(c, err, "Failed to export members")
		return
	}

	today := h.members.Today()
	var buf bytes.Buffer
	if err := WriteMembers(&buf, items, today); err != nil {
		logger.WithError(err).Error("failed to build member export", "branch_id", branchID)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to export members"})
		return
	}

	filename := fmt.Sprintf("members-%d-%s.xlsx", branchID, today.Format(time.DateOnly))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, ContentType, buf.Bytes())
}
