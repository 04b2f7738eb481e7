package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/promptforge/core/ent"
)

// createProject handles POST /api/projects.
func (h *handlers) createProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.deps.Projects.CreateProject(c.Request.Context(), req.Name, req.ParentID, req.Description)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProjectResponse(p))
}

// listProjects handles GET /api/projects, listing the children of the
// project named by the optional parent_id query parameter (root-level
// projects when absent).
func (h *handlers) listProjects(c *gin.Context) {
	var parentID *string
	if v := c.Query("parent_id"); v != "" {
		parentID = &v
	}
	projects, err := h.deps.Projects.ListChildren(c.Request.Context(), parentID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	out := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProjectResponse(p))
	}
	c.JSON(http.StatusOK, gin.H{"projects": out})
}

// getProject handles GET /api/projects/:id.
func (h *handlers) getProject(c *gin.Context) {
	p, err := h.deps.Projects.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProjectResponse(p))
}

// archiveProject handles POST /api/projects/:id/archive.
func (h *handlers) archiveProject(c *gin.Context) {
	p, err := h.deps.Projects.ArchiveProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProjectResponse(p))
}

// deleteProject handles DELETE /api/projects/:id (soft delete).
func (h *handlers) deleteProject(c *gin.Context) {
	if err := h.deps.Projects.DeleteProject(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toProjectResponse(p *ent.Project) projectResponse {
	return projectResponse{
		ID:          p.ID,
		Name:        p.Name,
		ParentID:    p.ParentID,
		Depth:       p.Depth,
		Status:      string(p.Status),
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
