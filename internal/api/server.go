// Package api implements the gin-gonic HTTP surface over the
// orchestrator and supporting services: optimization lifecycle,
// orchestration of individual stages, the event-bus contract
// introspection endpoint, the MCP webhook ingress, and VFS/Project/
// Prompt CRUD.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/promptforge/core/internal/config"
	"github.com/promptforge/core/internal/database"
	"github.com/promptforge/core/internal/eventbus"
	"github.com/promptforge/core/internal/providers"
	"github.com/promptforge/core/internal/queue"
	"github.com/promptforge/core/internal/services"
	"github.com/promptforge/core/internal/vfs"
)

// Deps bundles everything a handler needs. All fields are required;
// NewRouter does not validate wiring beyond what a nil-pointer panic
// would already catch at first use, matching the teacher's
// fail-fast-at-call-time style for its simpler servers.
type Deps struct {
	Config        *config.Config
	DBClient      *database.Client
	Bus           *eventbus.Bus
	Queue         *queue.Queue
	Providers     *providers.Registry
	Projects      *services.ProjectService
	Prompts       *services.PromptService
	Optimizations *services.OptimizationService
	VFS           *vfs.Service
}

// NewRouter builds the gin engine and registers every route, mirroring
// cmd/tarsy/main.go's gin.Default() + router.GET/POST wiring, expanded
// from the single inline health handler into the full resource set.
func NewRouter(deps *Deps) *gin.Engine {
	r := gin.Default()
	r.MaxMultipartMemory = 2 << 20 // 2 MiB, matching the teacher's body-size ceiling

	h := &handlers{deps: deps}

	r.GET("/health", h.health)
	r.GET("/internal/contracts", h.contracts)
	r.POST("/internal/mcp-event", h.webhookEvent)

	r.POST("/optimize", h.optimizeStream)
	r.GET("/optimize/:id", h.getOptimization)
	r.POST("/optimize/:id/retry", h.retryOptimization)
	r.POST("/optimize/:id/cancel", h.cancelOptimization)
	r.POST("/optimize/batch", h.optimizeBatch)
	r.POST("/orchestrate/:stage", h.orchestrateStage)

	projects := r.Group("/api/projects")
	{
		projects.POST("", h.createProject)
		projects.GET("", h.listProjects)
		projects.GET("/:id", h.getProject)
		projects.POST("/:id/archive", h.archiveProject)
		projects.DELETE("/:id", h.deleteProject)
	}

	prompts := r.Group("/api/prompts")
	{
		prompts.POST("", h.createPrompt)
		prompts.GET("/:id", h.getPrompt)
		prompts.PATCH("/:id", h.updatePrompt)
		prompts.GET("/:id/versions", h.listPromptVersions)
	}

	vfsGroup := r.Group("/api/vfs/:appID")
	{
		vfsGroup.POST("/folders", h.createFolder)
		vfsGroup.GET("/folders/:id", h.getFolder)
		vfsGroup.PATCH("/folders/:id", h.renameOrMoveFolder)
		vfsGroup.DELETE("/folders/:id", h.deleteFolder)
		vfsGroup.GET("/folders/:id/children", h.listChildren)

		vfsGroup.POST("/files", h.createFile)
		vfsGroup.GET("/files/:id", h.getFile)
		vfsGroup.PATCH("/files/:id", h.updateFile)
		vfsGroup.DELETE("/files/:id", h.deleteFile)
		vfsGroup.GET("/files/:id/versions", h.listFileVersions)
		vfsGroup.POST("/files/:id/restore/:versionID", h.restoreFileVersion)

		vfsGroup.GET("/search", h.searchFiles)
	}

	return r
}

type handlers struct {
	deps *Deps
}

func (h *handlers) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := database.Health(ctx, h.deps.DBClient.DB())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": status,
			"error":    err.Error(),
		})
		return
	}

	_, claudeCLIAvailable := providers.WhichClaudeCached()

	c.JSON(http.StatusOK, gin.H{
		"status":             "healthy",
		"database":           status,
		"configuration":      h.deps.Config.Stats(),
		"claude_cli_on_path": claudeCLIAvailable,
	})
}

func (h *handlers) contracts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"contracts": h.deps.Bus.Registry().Describe()})
}

func abortWithError(c *gin.Context, err error) {
	he := mapCoreError(err)
	c.AbortWithStatusJSON(he.Status, gin.H{"error": he.Message})
}
