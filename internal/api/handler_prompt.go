package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/promptforge/core/ent"
)

// createPrompt handles POST /api/prompts.
func (h *handlers) createPrompt(c *gin.Context) {
	var req createPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.deps.Prompts.CreatePrompt(c.Request.Context(), req.Content, req.Title, req.ProjectID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPromptResponse(p))
}

// getPrompt handles GET /api/prompts/:id.
func (h *handlers) getPrompt(c *gin.Context) {
	p, err := h.deps.Prompts.GetPrompt(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPromptResponse(p))
}

// updatePrompt handles PATCH /api/prompts/:id: a content-changing
// update snapshots the prior content into an immutable version, a
// title-only update does not.
func (h *handlers) updatePrompt(c *gin.Context) {
	var req updatePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.deps.Prompts.UpdateContent(c.Request.Context(), c.Param("id"), req.Content, req.Title)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPromptResponse(p))
}

// listPromptVersions handles GET /api/prompts/:id/versions.
func (h *handlers) listPromptVersions(c *gin.Context) {
	versions, err := h.deps.Prompts.ListVersions(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	out := make([]promptVersionResponse, 0, len(versions))
	for _, v := range versions {
		out = append(out, promptVersionResponse{
			ID:        v.ID,
			Version:   v.Version,
			Content:   v.Content,
			CreatedAt: v.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"versions": out})
}

func toPromptResponse(p *ent.Prompt) promptResponse {
	return promptResponse{
		ID:        p.ID,
		ProjectID: p.ProjectID,
		Title:     p.Title,
		Content:   p.Content,
		Version:   p.Version,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
