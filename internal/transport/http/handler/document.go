package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"knowledge-governance/internal/app"
	"knowledge-governance/internal/model"
	"knowledge-governance/internal/transport/http/response"
)

type DocumentHandler struct {
	lifecycle *app.LifecycleService
}

type MetadataRequest struct {
	Owner            string   `json:"owner"`
	ContentType      string   `json:"content_type"`
	Subject          string   `json:"subject"`
	Tags             []string `json:"tags"`
	Classification   string   `json:"classification"`
	CreationDate     *string  `json:"creation_date"`
	ReviewDate       *string  `json:"review_date"`
	SourceDepartment string   `json:"source_department"`
}

type RegisterDocumentRequest struct {
	FileName   string          `json:"file_name" binding:"required,max=255"`
	FolderPath string          `json:"folder_path" binding:"required,max=255"`
	ContentRef string          `json:"content_ref" binding:"max=255"`
	Metadata   MetadataRequest `json:"metadata"`
}

type MetadataPatchRequest struct {
	Owner            *string  `json:"owner"`
	Tags             []string `json:"tags"`
	Classification   *string  `json:"classification"`
	CreationDate     *string  `json:"creation_date"`
	ReviewDate       *string  `json:"review_date"`
	SourceDepartment *string  `json:"source_department"`
}

type NewVersionRequest struct {
	FileName   string               `json:"file_name" binding:"required,max=255"`
	ContentRef string               `json:"content_ref" binding:"max=255"`
	Bump       string               `json:"bump" binding:"required,oneof=minor major"`
	Metadata   MetadataPatchRequest `json:"metadata"`
}

type PIIRequest struct {
	Answers map[string]bool `json:"answers" binding:"required"`
}

func NewDocumentHandler(lifecycle *app.LifecycleService) *DocumentHandler {
	return &DocumentHandler{lifecycle: lifecycle}
}

func (h *DocumentHandler) Register(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req RegisterDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	md, err := req.Metadata.toModel()
	if err != nil {
		writeError(c, err, "")
		return
	}

	doc, err := h.lifecycle.Register(c.Request.Context(), app.RegisterInput{
		FileName:   req.FileName,
		FolderPath: req.FolderPath,
		ContentRef: req.ContentRef,
		Metadata:   md,
		CreatedBy:  actor.Username,
	})
	if err != nil {
		writeError(c, err, "register document failed")
		return
	}
	response.Created(c, doc)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.lifecycle.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "fetch document failed")
		return
	}
	successor, err := h.lifecycle.Successor(c.Request.Context(), doc.ID)
	if err != nil {
		writeError(c, err, "fetch document failed")
		return
	}
	var successorID string
	if successor != nil {
		successorID = successor.ID
	}
	response.OK(c, gin.H{
		"document":     doc,
		"successor_id": successorID,
	})
}

func (h *DocumentHandler) ListVersions(c *gin.Context) {
	versions, err := h.lifecycle.ListVersions(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "list versions failed")
		return
	}
	response.OK(c, versions)
}

func (h *DocumentHandler) CreateVersion(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req NewVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	patch, err := req.Metadata.toPatch()
	if err != nil {
		writeError(c, err, "")
		return
	}

	doc, err := h.lifecycle.CreateVersion(c.Request.Context(), c.Param("id"), app.NewVersionInput{
		FileName:   req.FileName,
		ContentRef: req.ContentRef,
		Bump:       app.BumpKind(req.Bump),
		Patch:      patch,
		CreatedBy:  actor.Username,
	})
	if err != nil {
		writeError(c, err, "create version failed")
		return
	}
	response.Created(c, doc)
}

func (h *DocumentHandler) UpdateMetadata(c *gin.Context) {
	var req MetadataPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		writeError(c, err, "")
		return
	}
	doc, err := h.lifecycle.UpdateMetadata(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeError(c, err, "update metadata failed")
		return
	}
	response.OK(c, doc)
}

func (h *DocumentHandler) Validate(c *gin.Context) {
	result, err := h.lifecycle.ValidateMetadata(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "validate metadata failed")
		return
	}
	response.OK(c, result)
}

func (h *DocumentHandler) CheckPII(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req PIIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	check, err := h.lifecycle.CheckPII(c.Request.Context(), c.Param("id"), req.Answers, actor.Username)
	var blocked *app.ComplianceBlockError
	if errors.As(err, &blocked) && check != nil {
		response.ErrorWithData(c, http.StatusUnprocessableEntity, response.CodeComplianceBlock, blocked.Error(), check)
		return
	}
	if err != nil {
		writeError(c, err, "pii check failed")
		return
	}
	response.OK(c, check)
}

func (h *DocumentHandler) ListPIIChecks(c *gin.Context) {
	checks, err := h.lifecycle.ListPIIChecks(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "list pii checks failed")
		return
	}
	response.OK(c, checks)
}

func (h *DocumentHandler) Activate(c *gin.Context) {
	h.transition(c, h.lifecycle.RequestActivation, "activate document failed")
}

func (h *DocumentHandler) Deprecate(c *gin.Context) {
	h.transition(c, h.lifecycle.Deprecate, "deprecate document failed")
}

func (h *DocumentHandler) Archive(c *gin.Context) {
	h.transition(c, h.lifecycle.Archive, "archive document failed")
}

type RejectRequest struct {
	Note string `json:"note" binding:"required,max=2000"`
}

func (h *DocumentHandler) Reject(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "a rejection note is required")
		return
	}
	decision, err := h.lifecycle.RejectActivation(c.Request.Context(), c.Param("id"), actor, req.Note)
	if err != nil {
		writeError(c, err, "reject document failed")
		return
	}
	response.OK(c, decision)
}

type transitionFunc func(ctx context.Context, docID string, actor app.Actor) (*model.Document, error)

func (h *DocumentHandler) transition(c *gin.Context, fn transitionFunc, fallback string) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	doc, err := fn(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		writeError(c, err, fallback)
		return
	}
	response.OK(c, doc)
}

func (h *DocumentHandler) ListCitable(c *gin.Context) {
	docs, err := h.lifecycle.ListActiveCitableDocuments(c.Request.Context(), c.Query("department"))
	if err != nil {
		writeError(c, err, "list citable documents failed")
		return
	}
	response.OK(c, docs)
}

func (r MetadataRequest) toModel() (model.Metadata, error) {
	creation, err := parseDate(r.CreationDate)
	if err != nil {
		return model.Metadata{}, &app.ValidationError{Fields: []string{app.FieldCreationDate}, Reason: "dates use YYYY-MM-DD"}
	}
	review, err := parseDate(r.ReviewDate)
	if err != nil {
		return model.Metadata{}, &app.ValidationError{Fields: []string{app.FieldReviewDate}, Reason: "dates use YYYY-MM-DD"}
	}
	return model.Metadata{
		Owner:            r.Owner,
		ContentType:      r.ContentType,
		Subject:          r.Subject,
		Tags:             r.Tags,
		Classification:   model.Classification(r.Classification),
		CreationDate:     creation,
		ReviewDate:       review,
		SourceDepartment: r.SourceDepartment,
	}, nil
}

func (r MetadataPatchRequest) toPatch() (app.MetadataPatch, error) {
	patch := app.MetadataPatch{
		Owner:            r.Owner,
		Tags:             r.Tags,
		SourceDepartment: r.SourceDepartment,
	}
	if r.Classification != nil {
		cls := model.Classification(*r.Classification)
		patch.Classification = &cls
	}
	var err error
	if patch.CreationDate, err = parseDate(r.CreationDate); err != nil {
		return app.MetadataPatch{}, &app.ValidationError{Fields: []string{app.FieldCreationDate}, Reason: "dates use YYYY-MM-DD"}
	}
	if patch.ReviewDate, err = parseDate(r.ReviewDate); err != nil {
		return app.MetadataPatch{}, &app.ValidationError{Fields: []string{app.FieldReviewDate}, Reason: "dates use YYYY-MM-DD"}
	}
	return patch, nil
}
