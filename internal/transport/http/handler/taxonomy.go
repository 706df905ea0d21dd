package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"knowledge-governance/internal/taxonomy"
	"knowledge-governance/internal/transport/http/response"
)

type TaxonomyHandler struct {
	taxonomy *taxonomy.Taxonomy
}

func NewTaxonomyHandler(tx *taxonomy.Taxonomy) *TaxonomyHandler {
	return &TaxonomyHandler{taxonomy: tx}
}

func (h *TaxonomyHandler) Get(c *gin.Context) {
	response.OK(c, h.taxonomy)
}

// Folders lists the folder paths a department's sub-areas must contain.
func (h *TaxonomyHandler) Folders(c *gin.Context) {
	paths := h.taxonomy.FolderPaths(c.Param("department"))
	if paths == nil {
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "unknown department")
		return
	}
	response.OK(c, paths)
}
