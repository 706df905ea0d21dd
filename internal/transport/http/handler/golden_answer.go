package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"knowledge-governance/internal/app"
	"knowledge-governance/internal/model"
	"knowledge-governance/internal/transport/http/response"
)

type GoldenAnswerHandler struct {
	answers *app.GoldenAnswerService
}

type CitationRequest struct {
	DocumentID string `json:"document_id" binding:"required"`
	Location   string `json:"location" binding:"max=255"`
}

type ProposeAnswerRequest struct {
	Question   string            `json:"question" binding:"required"`
	Answer     string            `json:"answer" binding:"required"`
	Citations  []CitationRequest `json:"citations" binding:"dive"`
	Confidence string            `json:"confidence" binding:"required"`
	Owner      string            `json:"owner" binding:"max=64"`
}

type ReviewAnswerRequest struct {
	Confidence string            `json:"confidence" binding:"required"`
	Answer     *string           `json:"answer"`
	Citations  []CitationRequest `json:"citations" binding:"dive"`
}

func NewGoldenAnswerHandler(answers *app.GoldenAnswerService) *GoldenAnswerHandler {
	return &GoldenAnswerHandler{answers: answers}
}

func (h *GoldenAnswerHandler) Propose(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req ProposeAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	owner := req.Owner
	if owner == "" {
		owner = actor.Username
	}

	answer, err := h.answers.Propose(c.Request.Context(), app.ProposeInput{
		Question:   req.Question,
		Answer:     req.Answer,
		Citations:  toCitationInputs(req.Citations),
		Confidence: model.Confidence(req.Confidence),
		Owner:      owner,
		AuthoredBy: actor.Username,
	})
	if err != nil {
		writeError(c, err, "propose golden answer failed")
		return
	}
	response.Created(c, answer)
}

func (h *GoldenAnswerHandler) Get(c *gin.Context) {
	answer, err := h.answers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "fetch golden answer failed")
		return
	}
	response.OK(c, answer)
}

func (h *GoldenAnswerHandler) Reject(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "a rejection note is required")
		return
	}
	answer, err := h.answers.Reject(c.Request.Context(), c.Param("id"), actor, req.Note)
	if err != nil {
		writeError(c, err, "reject golden answer failed")
		return
	}
	response.OK(c, answer)
}

func (h *GoldenAnswerHandler) Approve(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	answer, err := h.answers.Approve(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		writeError(c, err, "approve golden answer failed")
		return
	}
	response.OK(c, answer)
}

func (h *GoldenAnswerHandler) Review(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req ReviewAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	answer, err := h.answers.Review(c.Request.Context(), c.Param("id"), app.ReviewInput{
		Reviewer:   actor,
		Confidence: model.Confidence(req.Confidence),
		Answer:     req.Answer,
		Citations:  toCitationInputs(req.Citations),
	})
	if err != nil {
		writeError(c, err, "review golden answer failed")
		return
	}
	response.OK(c, answer)
}

func (h *GoldenAnswerHandler) DueForReview(c *gin.Context) {
	due, err := h.answers.ListDueForReview(c.Request.Context())
	if err != nil {
		writeError(c, err, "list answers due for review failed")
		return
	}
	response.OK(c, due)
}

func (h *GoldenAnswerHandler) Coverage(c *gin.Context) {
	coverage, err := h.answers.Coverage(c.Request.Context())
	if err != nil {
		writeError(c, err, "golden answer coverage failed")
		return
	}
	response.OK(c, coverage)
}

func toCitationInputs(reqs []CitationRequest) []app.CitationInput {
	out := make([]app.CitationInput, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, app.CitationInput{DocumentID: r.DocumentID, Location: r.Location})
	}
	return out
}
