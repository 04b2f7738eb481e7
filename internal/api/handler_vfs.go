package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/promptforge/core/internal/vfs"
)

// createFolder handles POST /api/vfs/:appID/folders.
func (h *handlers) createFolder(c *gin.Context) {
	var req createFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f, err := h.deps.VFS.CreateFolder(c.Request.Context(), c.Param("appID"), req.Name, req.ParentID, req.Metadata)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toFolderResponse(f))
}

// getFolder handles GET /api/vfs/:appID/folders/:id.
func (h *handlers) getFolder(c *gin.Context) {
	f, err := h.deps.VFS.GetFolder(c.Request.Context(), c.Param("appID"), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFolderResponse(f))
}

// renameOrMoveFolder handles PATCH /api/vfs/:appID/folders/:id. A
// request with move=true relocates the folder to new_parent_id
// (including to root when nil); otherwise a present name renames it
// within its current parent.
func (h *handlers) renameOrMoveFolder(c *gin.Context) {
	var req renameOrMoveFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	appID, id := c.Param("appID"), c.Param("id")

	if req.Move {
		f, err := h.deps.VFS.MoveFolder(c.Request.Context(), appID, id, req.NewParentID)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, toFolderResponse(f))
		return
	}

	if req.Name == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required unless move is true"})
		return
	}
	f, err := h.deps.VFS.RenameFolder(c.Request.Context(), appID, id, *req.Name)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFolderResponse(f))
}

// deleteFolder handles DELETE /api/vfs/:appID/folders/:id.
func (h *handlers) deleteFolder(c *gin.Context) {
	if err := h.deps.VFS.DeleteFolder(c.Request.Context(), c.Param("appID"), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// listChildren handles GET /api/vfs/:appID/folders/:id/children, and
// also serves the root listing when :id is "root".
func (h *handlers) listChildren(c *gin.Context) {
	var parentID *string
	if id := c.Param("id"); id != "root" {
		parentID = &id
	}
	folders, files, err := h.deps.VFS.ListChildren(c.Request.Context(), c.Param("appID"), parentID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	folderOut := make([]folderResponse, 0, len(folders))
	for _, f := range folders {
		folderOut = append(folderOut, toFolderResponse(f))
	}
	fileOut := make([]fileResponse, 0, len(files))
	for _, f := range files {
		fileOut = append(fileOut, toFileResponse(f))
	}
	c.JSON(http.StatusOK, gin.H{"folders": folderOut, "files": fileOut})
}

// createFile handles POST /api/vfs/:appID/files.
func (h *handlers) createFile(c *gin.Context) {
	var req createFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f, err := h.deps.VFS.CreateFile(c.Request.Context(), c.Param("appID"), req.Name, req.Content, req.FolderID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toFileResponse(f))
}

// getFile handles GET /api/vfs/:appID/files/:id.
func (h *handlers) getFile(c *gin.Context) {
	f, err := h.deps.VFS.GetFile(c.Request.Context(), c.Param("appID"), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFileResponse(f))
}

// updateFile handles PATCH /api/vfs/:appID/files/:id: move=true
// relocates the file to folder_id; otherwise content and/or name are
// applied, snapshotting the prior content when it changes.
func (h *handlers) updateFile(c *gin.Context) {
	var req updateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	appID, id := c.Param("appID"), c.Param("id")

	if req.Move {
		f, err := h.deps.VFS.MoveFile(c.Request.Context(), appID, id, req.FolderID)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, toFileResponse(f))
		return
	}

	f, err := h.deps.VFS.UpdateFileContent(c.Request.Context(), appID, id, req.Content, req.Name)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFileResponse(f))
}

// deleteFile handles DELETE /api/vfs/:appID/files/:id.
func (h *handlers) deleteFile(c *gin.Context) {
	if err := h.deps.VFS.DeleteFile(c.Request.Context(), c.Param("appID"), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// listFileVersions handles GET /api/vfs/:appID/files/:id/versions.
func (h *handlers) listFileVersions(c *gin.Context) {
	versions, err := h.deps.VFS.ListFileVersions(c.Request.Context(), c.Param("appID"), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	out := make([]fileVersionResponse, 0, len(versions))
	for _, v := range versions {
		out = append(out, fileVersionResponse{ID: v.ID, Version: v.Version, Content: v.Content, CreatedAt: v.CreatedAt})
	}
	c.JSON(http.StatusOK, gin.H{"versions": out})
}

// restoreFileVersion handles POST /api/vfs/:appID/files/:id/restore/:versionID.
func (h *handlers) restoreFileVersion(c *gin.Context) {
	f, err := h.deps.VFS.RestoreFileVersion(c.Request.Context(), c.Param("appID"), c.Param("id"), c.Param("versionID"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFileResponse(f))
}

// searchFiles handles GET /api/vfs/:appID/search?q=....
func (h *handlers) searchFiles(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": vfs.ErrEmptyQuery.Error()})
		return
	}
	files, err := h.deps.VFS.Search(c.Request.Context(), c.Param("appID"), query)
	if err != nil {
		abortWithError(c, err)
		return
	}
	out := make([]fileResponse, 0, len(files))
	for _, f := range files {
		out = append(out, toFileResponse(f))
	}
	c.JSON(http.StatusOK, gin.H{"files": out})
}

func toFolderResponse(f *vfs.Folder) folderResponse {
	return folderResponse{
		ID:        f.ID,
		AppID:     f.AppID,
		Name:      f.Name,
		ParentID:  f.ParentID,
		Depth:     f.Depth,
		Metadata:  f.Metadata,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

func toFileResponse(f *vfs.File) fileResponse {
	return fileResponse{
		ID:        f.ID,
		AppID:     f.AppID,
		Name:      f.Name,
		FolderID:  f.FolderID,
		Content:   f.Content,
		Version:   f.Version,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}
