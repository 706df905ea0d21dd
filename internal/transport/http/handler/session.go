package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"knowledge-governance/internal/ai"
	"knowledge-governance/internal/keepalive"
	"knowledge-governance/internal/transport/http/response"
)

type SessionKeeper interface {
	Status() keepalive.Status
	Reauthenticate(ctx context.Context, creds keepalive.Credentials) error
}

type NotebookLister interface {
	ListNotebooks(ctx context.Context) ([]ai.Notebook, error)
}

type SessionHandler struct {
	keeper    SessionKeeper
	notebooks NotebookLister
}

type ReauthenticateRequest struct {
	AccessToken  string    `json:"access_token" binding:"required"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func NewSessionHandler(keeper SessionKeeper, notebooks NotebookLister) *SessionHandler {
	return &SessionHandler{keeper: keeper, notebooks: notebooks}
}

func (h *SessionHandler) Status(c *gin.Context) {
	response.OK(c, h.keeper.Status())
}

func (h *SessionHandler) Reauthenticate(c *gin.Context) {
	var req ReauthenticateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	err := h.keeper.Reauthenticate(c.Request.Context(), keepalive.Credentials{
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		ExpiresAt:    req.ExpiresAt,
	})
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		return
	}
	response.OK(c, h.keeper.Status())
}

func (h *SessionHandler) ListNotebooks(c *gin.Context) {
	notebooks, err := h.notebooks.ListNotebooks(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, keepalive.ErrSessionExpired):
			response.Error(c, http.StatusServiceUnavailable, response.CodeSessionExpired, err.Error())
		case errors.Is(err, keepalive.ErrRefreshInProgress):
			c.Header("Retry-After", "2")
			response.Error(c, http.StatusServiceUnavailable, response.CodeRefreshInProgress, err.Error())
		case errors.Is(err, ai.ErrUnauthorized):
			response.Error(c, http.StatusBadGateway, response.CodeUpstream, err.Error())
		default:
			_ = c.Error(err)
			response.Error(c, http.StatusBadGateway, response.CodeUpstream, "list notebooks failed")
		}
		return
	}
	response.OK(c, notebooks)
}
