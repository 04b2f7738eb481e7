package vfs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return NewService(NewInMemoryRepository())
}

func strPtr(s string) *string { return &s }

func TestCreateRootFolder(t *testing.T) {
	s := newTestService()
	folder, err := s.CreateFolder(context.Background(), "app-1", "Documents", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Documents", folder.Name)
	assert.Nil(t, folder.ParentID)
	assert.Equal(t, 0, folder.Depth)
}

func TestCreateNestedFolderIncrementsDepth(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	parent, err := s.CreateFolder(ctx, "app-1", "Root", nil, nil)
	require.NoError(t, err)

	child, err := s.CreateFolder(ctx, "app-1", "Child", &parent.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, child.Depth)
	assert.Equal(t, parent.ID, *child.ParentID)
}

func TestCreateFolderMaxDepthExceeded(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	var currentID *string
	for i := 0; i < MaxDepth; i++ {
		f, err := s.CreateFolder(ctx, "app-1", "level", currentID, nil)
		require.NoError(t, err)
		currentID = &f.ID
	}

	_, err := s.CreateFolder(ctx, "app-1", "too-deep", currentID, nil)
	assert.ErrorIs(t, err, ErrDepthExceeded)
}

func TestCreateFolderWithMetadata(t *testing.T) {
	s := newTestService()
	folder, err := s.CreateFolder(context.Background(), "app-1", "Meta", nil, map[string]any{"icon": "folder"})
	require.NoError(t, err)
	assert.Equal(t, "folder", folder.Metadata["icon"])
}

func TestGetFolderNotFound(t *testing.T) {
	s := newTestService()
	_, err := s.GetFolder(context.Background(), "app-1", "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteFolder(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	folder, err := s.CreateFolder(ctx, "app-1", "DeleteMe", nil, nil)
	require.NoError(t, err)

	require.NoError(t, s.DeleteFolder(ctx, "app-1", folder.ID))
	_, err = s.GetFolder(ctx, "app-1", folder.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteFolderNotFound(t *testing.T) {
	s := newTestService()
	err := s.DeleteFolder(context.Background(), "app-1", "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetFolderPath(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	a, _ := s.CreateFolder(ctx, "app-1", "A", nil, nil)
	b, _ := s.CreateFolder(ctx, "app-1", "B", &a.ID, nil)
	c, _ := s.CreateFolder(ctx, "app-1", "C", &b.ID, nil)

	path, err := s.GetFolderPath(ctx, "app-1", c.ID)
	require.NoError(t, err)
	require.Len(t, path, 3)
	assert.Equal(t, "A", path[0].Name)
	assert.Equal(t, "B", path[1].Name)
	assert.Equal(t, "C", path[2].Name)
}

func TestCreateFile(t *testing.T) {
	s := newTestService()
	file, err := s.CreateFile(context.Background(), "app-1", "readme.md", "# Hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "# Hello", file.Content)
	assert.Equal(t, 1, file.Version)
	assert.Equal(t, "text/plain", file.ContentType)
}

func TestCreateFileInFolder(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	folder, _ := s.CreateFolder(ctx, "app-1", "Docs", nil, nil)

	file, err := s.CreateFile(ctx, "app-1", "notes.txt", "notes", &folder.ID)
	require.NoError(t, err)
	assert.Equal(t, folder.ID, *file.FolderID)
}

func TestUpdateFileContentCreatesVersion(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	file, _ := s.CreateFile(ctx, "app-1", "versioned.txt", "v1", nil)

	updated, err := s.UpdateFileContent(ctx, "app-1", file.ID, strPtr("v2"), nil)
	require.NoError(t, err)
	assert.Equal(t, "v2", updated.Content)
	assert.Equal(t, 2, updated.Version)

	versions, err := s.ListFileVersions(ctx, "app-1", file.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, "v1", versions[0].Content)
	assert.Equal(t, 1, versions[0].Version)
}

func TestNameOnlyUpdateCreatesNoVersion(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	file, _ := s.CreateFile(ctx, "app-1", "stable.txt", "same", nil)

	_, err := s.UpdateFileContent(ctx, "app-1", file.ID, nil, strPtr("renamed.txt"))
	require.NoError(t, err)

	versions, err := s.ListFileVersions(ctx, "app-1", file.ID)
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestVersionsCreatedOnMultipleContentChanges(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	file, _ := s.CreateFile(ctx, "app-1", "v-test.txt", "original", nil)

	_, err := s.UpdateFileContent(ctx, "app-1", file.ID, strPtr("updated-1"), nil)
	require.NoError(t, err)
	_, err = s.UpdateFileContent(ctx, "app-1", file.ID, strPtr("updated-2"), nil)
	require.NoError(t, err)

	versions, err := s.ListFileVersions(ctx, "app-1", file.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].Version)
	assert.Equal(t, "updated-1", versions[0].Content)
	assert.Equal(t, 1, versions[1].Version)
	assert.Equal(t, "original", versions[1].Content)
}

func TestRestoreVersion(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	file, _ := s.CreateFile(ctx, "app-1", "restore.txt", "original", nil)
	_, err := s.UpdateFileContent(ctx, "app-1", file.ID, strPtr("updated"), nil)
	require.NoError(t, err)

	versions, err := s.ListFileVersions(ctx, "app-1", file.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)

	restored, err := s.RestoreFileVersion(ctx, "app-1", file.ID, versions[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "original", restored.Content)
	assert.Equal(t, 3, restored.Version)
}

func TestRestoreVersionNotFound(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	file, _ := s.CreateFile(ctx, "app-1", "no-restore.txt", "hi", nil)

	_, err := s.RestoreFileVersion(ctx, "app-1", file.ID, "nonexistent")
	assert.ErrorIs(t, err, ErrInvalidVersion)
}

func TestListChildrenRoot(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	_, _ = s.CreateFolder(ctx, "app-1", "F1", nil, nil)
	_, _ = s.CreateFile(ctx, "app-1", "root.txt", "hi", nil)

	folders, files, err := s.ListChildren(ctx, "app-1", nil)
	require.NoError(t, err)
	assert.Len(t, folders, 1)
	assert.Len(t, files, 1)
}

func TestSearchFiles(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	_, _ = s.CreateFile(ctx, "app-1", "searchable-doc.md", "content", nil)
	_, _ = s.CreateFile(ctx, "app-1", "other.txt", "other", nil)

	results, err := s.Search(ctx, "app-1", "searchable")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "searchable-doc.md", results[0].Name)
}

func TestSearchEmptyQueryRejected(t *testing.T) {
	s := newTestService()
	_, err := s.Search(context.Background(), "app-1", "")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestDifferentAppsIsolated(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	_, _ = s.CreateFolder(ctx, "app-a", "OnlyA", nil, nil)
	_, _ = s.CreateFolder(ctx, "app-b", "OnlyB", nil, nil)

	foldersA, _, err := s.ListChildren(ctx, "app-a", nil)
	require.NoError(t, err)
	foldersB, _, err := s.ListChildren(ctx, "app-b", nil)
	require.NoError(t, err)

	namesA := []string{foldersA[0].Name}
	namesB := []string{foldersB[0].Name}
	assert.Equal(t, []string{"OnlyA"}, namesA)
	assert.Equal(t, []string{"OnlyB"}, namesB)
}

func TestGetFolderWrongAppNotFound(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	folder, _ := s.CreateFolder(ctx, "app-a", "Secret", nil, nil)

	_, err := s.GetFolder(ctx, "app-b", folder.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMoveFolderToNewParent(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	a, _ := s.CreateFolder(ctx, "app-1", "A", nil, nil)
	b, _ := s.CreateFolder(ctx, "app-1", "B", nil, nil)

	moved, err := s.MoveFolder(ctx, "app-1", b.ID, &a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, *moved.ParentID)
	assert.Equal(t, 1, moved.Depth)
}

func TestMoveFolderToRoot(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	parent, _ := s.CreateFolder(ctx, "app-1", "Parent", nil, nil)
	child, _ := s.CreateFolder(ctx, "app-1", "Child", &parent.ID, nil)

	moved, err := s.MoveFolder(ctx, "app-1", child.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, moved.ParentID)
	assert.Equal(t, 0, moved.Depth)
}

func TestMoveFolderIntoItselfRejected(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	folder, _ := s.CreateFolder(ctx, "app-1", "Self", nil, nil)

	_, err := s.MoveFolder(ctx, "app-1", folder.ID, &folder.ID)
	assert.ErrorIs(t, err, ErrSelfReference)
}

func TestMoveFolderCircularReferenceRejected(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	a, _ := s.CreateFolder(ctx, "app-1", "A", nil, nil)
	b, _ := s.CreateFolder(ctx, "app-1", "B", &a.ID, nil)

	_, err := s.MoveFolder(ctx, "app-1", a.ID, &b.ID)
	assert.ErrorIs(t, err, ErrCircularReference)
}

func TestMoveFolderNotFound(t *testing.T) {
	s := newTestService()
	_, err := s.MoveFolder(context.Background(), "app-1", "nonexistent", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMoveFolderDepthLimit(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	var currentID *string
	for i := 0; i < MaxDepth; i++ {
		f, err := s.CreateFolder(ctx, "app-1", "deep", currentID, nil)
		require.NoError(t, err)
		currentID = &f.ID
	}

	standalone, err := s.CreateFolder(ctx, "app-1", "standalone", nil, nil)
	require.NoError(t, err)

	_, err = s.MoveFolder(ctx, "app-1", standalone.ID, currentID)
	assert.ErrorIs(t, err, ErrDepthExceeded)
}

func TestMoveFolderCascadesDepthToChildren(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	a, _ := s.CreateFolder(ctx, "app-1", "A", nil, nil)
	b, _ := s.CreateFolder(ctx, "app-1", "B", &a.ID, nil)
	c, _ := s.CreateFolder(ctx, "app-1", "C", &b.ID, nil)
	require.Equal(t, 1, b.Depth)
	require.Equal(t, 2, c.Depth)

	d, _ := s.CreateFolder(ctx, "app-1", "D", nil, nil)
	moved, err := s.MoveFolder(ctx, "app-1", a.ID, &d.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, moved.Depth)

	bAfter, err := s.GetFolder(ctx, "app-1", b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, bAfter.Depth)

	cAfter, err := s.GetFolder(ctx, "app-1", c.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, cAfter.Depth)
}

func TestMoveFolderToRootCascadesDepth(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	p, _ := s.CreateFolder(ctx, "app-1", "P", nil, nil)
	q, _ := s.CreateFolder(ctx, "app-1", "Q", &p.ID, nil)
	r, _ := s.CreateFolder(ctx, "app-1", "R", &q.ID, nil)

	moved, err := s.MoveFolder(ctx, "app-1", q.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, moved.Depth)

	rAfter, err := s.GetFolder(ctx, "app-1", r.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, rAfter.Depth)
}

func TestMoveFileToFolder(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	folder, _ := s.CreateFolder(ctx, "app-1", "Target", nil, nil)
	file, _ := s.CreateFile(ctx, "app-1", "moveme.txt", "hi", nil)

	moved, err := s.MoveFile(ctx, "app-1", file.ID, &folder.ID)
	require.NoError(t, err)
	assert.Equal(t, folder.ID, *moved.FolderID)
}

func TestMoveFileInvalidFolder(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	file, _ := s.CreateFile(ctx, "app-1", "bad-move.txt", "hi", nil)

	_, err := s.MoveFile(ctx, "app-1", file.ID, strPtr("nonexistent-folder"))
	assert.ErrorIs(t, err, ErrInvalidFolder)
}

func TestRenameFolderDuplicateNameConflict(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	parent, _ := s.CreateFolder(ctx, "app-1", "Parent", nil, nil)
	_, _ = s.CreateFolder(ctx, "app-1", "Existing", &parent.ID, nil)
	other, _ := s.CreateFolder(ctx, "app-1", "Other", &parent.ID, nil)

	_, err := s.RenameFolder(ctx, "app-1", other.ID, "Existing")
	assert.ErrorIs(t, err, ErrNameConflict)
}

func TestRenameFolderNotFound(t *testing.T) {
	s := newTestService()
	_, err := s.RenameFolder(context.Background(), "app-1", "nonexistent", "New")
	assert.ErrorIs(t, err, ErrNotFound)
}
