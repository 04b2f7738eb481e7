package vfs

import (
	"context"

	"github.com/google/uuid"
)

// Service implements the virtual filesystem's business rules on top
// of a Repository: depth bounds, circular-reference rejection,
// cascading depth updates on move, content versioning, and app
// isolation (every operation is scoped by appID, so the Repository
// itself never needs to reason about cross-app visibility).
type Service struct {
	repo Repository
}

// NewService constructs a Service backed by repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateFolder creates a folder under parentID (nil for root), within
// MaxDepth, failing with ErrNameConflict if a sibling already has
// name.
func (s *Service) CreateFolder(ctx context.Context, appID, name string, parentID *string, metadata map[string]any) (*Folder, error) {
	depth := 0
	if parentID != nil {
		parent, err := s.repo.GetFolder(ctx, appID, *parentID)
		if err != nil {
			return nil, err
		}
		depth = parent.Depth + 1
		if depth >= MaxDepth {
			return nil, ErrDepthExceeded
		}
	}

	taken, err := s.repo.FolderNameTaken(ctx, appID, parentID, name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrNameConflict
	}

	folder := &Folder{
		ID:        uuid.NewString(),
		AppID:     appID,
		Name:      name,
		ParentID:  parentID,
		Depth:     depth,
		Metadata:  metadata,
		CreatedAt: timeNow(),
		UpdatedAt: timeNow(),
	}
	if err := s.repo.CreateFolder(ctx, folder); err != nil {
		return nil, err
	}
	return folder, nil
}

// GetFolder returns a folder by id, scoped to appID.
func (s *Service) GetFolder(ctx context.Context, appID, id string) (*Folder, error) {
	return s.repo.GetFolder(ctx, appID, id)
}

// GetFolderPath returns the chain of folders from root to folderID
// inclusive.
func (s *Service) GetFolderPath(ctx context.Context, appID, folderID string) ([]*Folder, error) {
	folder, err := s.repo.GetFolder(ctx, appID, folderID)
	if err != nil {
		return nil, err
	}

	path := []*Folder{folder}
	current := folder
	for current.ParentID != nil {
		parent, err := s.repo.GetFolder(ctx, appID, *current.ParentID)
		if err != nil {
			return nil, err
		}
		path = append([]*Folder{parent}, path...)
		current = parent
	}
	return path, nil
}

// DeleteFolder removes a folder. With the ent-backed repository the
// database's ON DELETE CASCADE also removes everything nested beneath
// it; InMemoryRepository removes only the folder itself.
func (s *Service) DeleteFolder(ctx context.Context, appID, id string) error {
	if _, err := s.repo.GetFolder(ctx, appID, id); err != nil {
		return err
	}
	return s.repo.DeleteFolder(ctx, appID, id)
}

// RenameFolder renames a folder, rejecting a rename that collides with
// an existing sibling.
func (s *Service) RenameFolder(ctx context.Context, appID, id, newName string) (*Folder, error) {
	folder, err := s.repo.GetFolder(ctx, appID, id)
	if err != nil {
		return nil, err
	}
	taken, err := s.repo.FolderNameTaken(ctx, appID, folder.ParentID, newName, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrNameConflict
	}
	folder.Name = newName
	folder.UpdatedAt = timeNow()
	if err := s.repo.UpdateFolder(ctx, folder); err != nil {
		return nil, err
	}
	return folder, nil
}

// MoveFolder reparents a folder under newParentID (nil for root),
// rejecting self-reference, circular reference, and depth-limit
// violations, and cascading the resulting depth delta to every
// descendant.
func (s *Service) MoveFolder(ctx context.Context, appID, id string, newParentID *string) (*Folder, error) {
	folder, err := s.repo.GetFolder(ctx, appID, id)
	if err != nil {
		return nil, err
	}

	newDepth := 0
	if newParentID != nil {
		if *newParentID == id {
			return nil, ErrSelfReference
		}
		newParent, err := s.repo.GetFolder(ctx, appID, *newParentID)
		if err != nil {
			return nil, ErrInvalidFolder
		}
		if err := s.rejectCircular(ctx, appID, id, newParent); err != nil {
			return nil, err
		}
		newDepth = newParent.Depth + 1
		if newDepth >= MaxDepth {
			return nil, ErrDepthExceeded
		}
		descendants, err := s.repo.ListDescendantFolders(ctx, appID, id)
		if err != nil {
			return nil, err
		}
		for _, d := range descendants {
			if d.Depth+newDepth-folder.Depth >= MaxDepth {
				return nil, ErrDepthExceeded
			}
		}
	}

	oldDepth := folder.Depth
	folder.ParentID = newParentID
	folder.Depth = newDepth
	folder.UpdatedAt = timeNow()
	if err := s.repo.UpdateFolder(ctx, folder); err != nil {
		return nil, err
	}

	if delta := newDepth - oldDepth; delta != 0 {
		if err := s.cascadeDepth(ctx, appID, id, delta); err != nil {
			return nil, err
		}
	}

	return folder, nil
}

// rejectCircular walks up from newParent toward the root and returns
// ErrCircularReference if movingID appears in that chain — moving
// movingID under newParent would otherwise make movingID its own
// ancestor.
func (s *Service) rejectCircular(ctx context.Context, appID, movingID string, newParent *Folder) error {
	current := newParent
	for {
		if current.ID == movingID {
			return ErrCircularReference
		}
		if current.ParentID == nil {
			return nil
		}
		parent, err := s.repo.GetFolder(ctx, appID, *current.ParentID)
		if err != nil {
			return nil
		}
		current = parent
	}
}

func (s *Service) cascadeDepth(ctx context.Context, appID, folderID string, delta int) error {
	descendants, err := s.repo.ListDescendantFolders(ctx, appID, folderID)
	if err != nil {
		return err
	}
	for _, d := range descendants {
		d.Depth += delta
		d.UpdatedAt = timeNow()
		if err := s.repo.UpdateFolder(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

// ListChildren returns the folders and files directly under parentID
// (nil for the app's root).
func (s *Service) ListChildren(ctx context.Context, appID string, parentID *string) ([]*Folder, []*File, error) {
	folders, err := s.repo.ListFolderChildren(ctx, appID, parentID)
	if err != nil {
		return nil, nil, err
	}
	files, err := s.repo.ListFilesInFolder(ctx, appID, parentID)
	if err != nil {
		return nil, nil, err
	}
	return folders, files, nil
}

// CreateFile creates a file, optionally inside folderID.
func (s *Service) CreateFile(ctx context.Context, appID, name, content string, folderID *string) (*File, error) {
	if folderID != nil {
		if _, err := s.repo.GetFolder(ctx, appID, *folderID); err != nil {
			return nil, ErrInvalidFolder
		}
	}

	file := &File{
		ID:          uuid.NewString(),
		AppID:       appID,
		Name:        name,
		FolderID:    folderID,
		Content:     content,
		ContentType: "text/plain",
		Version:     1,
		CreatedAt:   timeNow(),
		UpdatedAt:   timeNow(),
	}
	if err := s.repo.CreateFile(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

// GetFile returns a file by id, scoped to appID.
func (s *Service) GetFile(ctx context.Context, appID, id string) (*File, error) {
	return s.repo.GetFile(ctx, appID, id)
}

// DeleteFile removes a file and its version history.
func (s *Service) DeleteFile(ctx context.Context, appID, id string) error {
	if _, err := s.repo.GetFile(ctx, appID, id); err != nil {
		return err
	}
	return s.repo.DeleteFile(ctx, appID, id)
}

// RenameFile renames a file without touching its content or version
// history.
func (s *Service) RenameFile(ctx context.Context, appID, id, newName string) (*File, error) {
	file, err := s.repo.GetFile(ctx, appID, id)
	if err != nil {
		return nil, err
	}
	file.Name = newName
	file.UpdatedAt = timeNow()
	if err := s.repo.UpdateFile(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

// MoveFile reassigns a file to a different folder (nil for root).
func (s *Service) MoveFile(ctx context.Context, appID, id string, newFolderID *string) (*File, error) {
	file, err := s.repo.GetFile(ctx, appID, id)
	if err != nil {
		return nil, err
	}
	if newFolderID != nil {
		if _, err := s.repo.GetFolder(ctx, appID, *newFolderID); err != nil {
			return nil, ErrInvalidFolder
		}
	}
	file.FolderID = newFolderID
	file.UpdatedAt = timeNow()
	if err := s.repo.UpdateFile(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

// UpdateFileContent updates a file's content and/or name. When the
// content actually changes, the previous content is snapshotted as a
// FileVersion and the file's version counter is incremented; a
// name-only update leaves the version history untouched.
func (s *Service) UpdateFileContent(ctx context.Context, appID, id string, newContent, newName *string) (*File, error) {
	file, err := s.repo.GetFile(ctx, appID, id)
	if err != nil {
		return nil, err
	}

	if newContent != nil && *newContent != file.Content {
		if err := s.repo.CreateFileVersion(ctx, &FileVersion{
			ID:        uuid.NewString(),
			FileID:    file.ID,
			Version:   file.Version,
			Content:   file.Content,
			CreatedAt: timeNow(),
		}); err != nil {
			return nil, err
		}
		file.Content = *newContent
		file.Version++
	}
	if newName != nil {
		file.Name = *newName
	}
	file.UpdatedAt = timeNow()

	if err := s.repo.UpdateFile(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

// ListFileVersions returns a file's version history, most recent
// first.
func (s *Service) ListFileVersions(ctx context.Context, appID, fileID string) ([]*FileVersion, error) {
	if _, err := s.repo.GetFile(ctx, appID, fileID); err != nil {
		return nil, err
	}
	return s.repo.ListFileVersions(ctx, fileID)
}

// RestoreFileVersion snapshots the file's current content as a new
// version, then overwrites the file with the target version's
// content, incrementing the version counter again.
func (s *Service) RestoreFileVersion(ctx context.Context, appID, fileID, versionID string) (*File, error) {
	file, err := s.repo.GetFile(ctx, appID, fileID)
	if err != nil {
		return nil, err
	}
	target, err := s.repo.GetFileVersion(ctx, fileID, versionID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateFileVersion(ctx, &FileVersion{
		ID:        uuid.NewString(),
		FileID:    file.ID,
		Version:   file.Version,
		Content:   file.Content,
		CreatedAt: timeNow(),
	}); err != nil {
		return nil, err
	}

	file.Content = target.Content
	file.Version++
	file.UpdatedAt = timeNow()
	if err := s.repo.UpdateFile(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

// Search finds files in appID whose name contains query.
func (s *Service) Search(ctx context.Context, appID, query string) ([]*File, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	return s.repo.SearchFiles(ctx, appID, query)
}
