package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"knowledge-governance/internal/app"
	"knowledge-governance/internal/transport/http/response"
)

type ApprovalHandler struct {
	approvals *app.ApprovalService
}

func NewApprovalHandler(approvals *app.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvals: approvals}
}

func (h *ApprovalHandler) Pending(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	pending, err := h.approvals.Pending(c.Request.Context(), actor, c.Query("department"))
	if err != nil {
		writeError(c, err, "list pending approvals failed")
		return
	}
	response.OK(c, pending)
}

func (h *ApprovalHandler) History(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	decisions, err := h.approvals.History(c.Request.Context(), actor, c.Query("department"), limit)
	if err != nil {
		writeError(c, err, "list approval history failed")
		return
	}
	response.OK(c, decisions)
}

func (h *ApprovalHandler) Mine(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	mine, err := h.approvals.MyRequests(c.Request.Context(), actor, limit)
	if err != nil {
		writeError(c, err, "list my requests failed")
		return
	}
	response.OK(c, mine)
}

func queryLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "limit must be a non-negative number")
		return 0, false
	}
	return limit, true
}
