package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"knowledge-governance/internal/app"
	"knowledge-governance/internal/transport/http/middleware"
	"knowledge-governance/internal/transport/http/response"
)

// writeError maps governance errors onto the API envelope. fallback is the
// message used for unexpected failures.
func writeError(c *gin.Context, err error, fallback string) {
	var (
		verr     *app.ValidationError
		blocked  *app.ComplianceBlockError
		conflict *app.StateConflictError
	)
	switch {
	case errors.As(err, &verr):
		response.ErrorWithData(c, http.StatusBadRequest, response.CodeValidation, verr.Error(), gin.H{"fields": verr.Fields})
	case errors.As(err, &blocked):
		response.ErrorWithData(c, http.StatusUnprocessableEntity, response.CodeComplianceBlock, blocked.Error(), gin.H{"positive": blocked.Positive})
	case errors.As(err, &conflict):
		response.ErrorWithData(c, http.StatusConflict, response.CodeStateConflict, conflict.Error(), gin.H{"from": conflict.From, "to": conflict.To})
	case errors.Is(err, app.ErrAuthorization):
		response.Error(c, http.StatusForbidden, response.CodeForbidden, err.Error())
	case errors.Is(err, app.ErrNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
	case errors.Is(err, app.ErrValidation):
		response.Error(c, http.StatusBadRequest, response.CodeValidation, err.Error())
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}

func mustActor(c *gin.Context) (app.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
	}
	return actor, ok
}

// parseDate accepts a calendar date or an RFC3339 timestamp. Empty means unset.
func parseDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", *raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}
