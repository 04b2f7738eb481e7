package database

import (
	"context"
	"fmt"

	"github.com/promptforge/core/ent"
	"github.com/promptforge/core/ent/vfsfile"
	"github.com/promptforge/core/ent/vfsfileversion"
	"github.com/promptforge/core/ent/vfsfolder"
	"github.com/promptforge/core/internal/vfs"
)

// VFSRepository is the ent-backed implementation of vfs.Repository,
// the persistent counterpart to vfs.InMemoryRepository used outside
// tests and single-process dev runs.
type VFSRepository struct {
	client *ent.Client
}

// NewVFSRepository constructs a VFSRepository over an open ent client.
func NewVFSRepository(client *ent.Client) *VFSRepository {
	return &VFSRepository{client: client}
}

var _ vfs.Repository = (*VFSRepository)(nil)

func (r *VFSRepository) CreateFolder(ctx context.Context, f *vfs.Folder) error {
	q := r.client.VFSFolder.Create().
		SetID(f.ID).
		SetAppID(f.AppID).
		SetName(f.Name).
		SetDepth(f.Depth).
		SetNillableParentID(f.ParentID).
		SetCreatedAt(f.CreatedAt).
		SetUpdatedAt(f.UpdatedAt)
	if f.Metadata != nil {
		q = q.SetMetadata(f.Metadata)
	}
	_, err := q.Save(ctx)
	return err
}

func (r *VFSRepository) GetFolder(ctx context.Context, appID, id string) (*vfs.Folder, error) {
	row, err := r.client.VFSFolder.Query().
		Where(vfsfolder.ID(id), vfsfolder.AppID(appID)).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, vfs.ErrNotFound
		}
		return nil, err
	}
	return toDomainFolder(row), nil
}

func (r *VFSRepository) UpdateFolder(ctx context.Context, f *vfs.Folder) error {
	n, err := r.client.VFSFolder.Update().
		Where(vfsfolder.ID(f.ID), vfsfolder.AppID(f.AppID)).
		SetName(f.Name).
		SetDepth(f.Depth).
		SetNillableParentID(f.ParentID).
		SetMetadata(f.Metadata).
		SetUpdatedAt(f.UpdatedAt).
		Save(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return vfs.ErrNotFound
	}
	return nil
}

func (r *VFSRepository) DeleteFolder(ctx context.Context, appID, id string) error {
	n, err := r.client.VFSFolder.Delete().
		Where(vfsfolder.ID(id), vfsfolder.AppID(appID)).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return vfs.ErrNotFound
	}
	return nil
}

func (r *VFSRepository) ListFolderChildren(ctx context.Context, appID string, parentID *string) ([]*vfs.Folder, error) {
	query := r.client.VFSFolder.Query().Where(vfsfolder.AppID(appID))
	if parentID == nil {
		query = query.Where(vfsfolder.ParentIDIsNil())
	} else {
		query = query.Where(vfsfolder.ParentID(*parentID))
	}
	rows, err := query.All(ctx)
	if err != nil {
		return nil, err
	}
	return toDomainFolders(rows), nil
}

func (r *VFSRepository) ListDescendantFolders(ctx context.Context, appID, folderID string) ([]*vfs.Folder, error) {
	// Loads the whole app-scoped tree and filters in-process; the
	// folder trees here are bounded by vfs.MaxDepth, so this never
	// scans more than a handful of levels.
	all, err := r.client.VFSFolder.Query().Where(vfsfolder.AppID(appID)).All(ctx)
	if err != nil {
		return nil, err
	}
	byParent := map[string][]*ent.VFSFolder{}
	for _, f := range all {
		if f.ParentID != nil {
			byParent[*f.ParentID] = append(byParent[*f.ParentID], f)
		}
	}
	var descendants []*vfs.Folder
	var walk func(id string)
	walk = func(id string) {
		for _, child := range byParent[id] {
			descendants = append(descendants, toDomainFolder(child))
			walk(child.ID)
		}
	}
	walk(folderID)
	return descendants, nil
}

func (r *VFSRepository) FolderNameTaken(ctx context.Context, appID string, parentID *string, name string, excludeID string) (bool, error) {
	query := r.client.VFSFolder.Query().Where(vfsfolder.AppID(appID), vfsfolder.Name(name))
	if parentID == nil {
		query = query.Where(vfsfolder.ParentIDIsNil())
	} else {
		query = query.Where(vfsfolder.ParentID(*parentID))
	}
	if excludeID != "" {
		query = query.Where(vfsfolder.IDNEQ(excludeID))
	}
	return query.Exist(ctx)
}

func (r *VFSRepository) CreateFile(ctx context.Context, f *vfs.File) error {
	_, err := r.client.VFSFile.Create().
		SetID(f.ID).
		SetAppID(f.AppID).
		SetName(f.Name).
		SetNillableFolderID(f.FolderID).
		SetContent(f.Content).
		SetContentType(f.ContentType).
		SetVersion(f.Version).
		SetCreatedAt(f.CreatedAt).
		SetUpdatedAt(f.UpdatedAt).
		Save(ctx)
	return err
}

func (r *VFSRepository) GetFile(ctx context.Context, appID, id string) (*vfs.File, error) {
	row, err := r.client.VFSFile.Query().
		Where(vfsfile.ID(id), vfsfile.AppID(appID)).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, vfs.ErrNotFound
		}
		return nil, err
	}
	return toDomainFile(row), nil
}

func (r *VFSRepository) UpdateFile(ctx context.Context, f *vfs.File) error {
	n, err := r.client.VFSFile.Update().
		Where(vfsfile.ID(f.ID), vfsfile.AppID(f.AppID)).
		SetName(f.Name).
		SetNillableFolderID(f.FolderID).
		SetContent(f.Content).
		SetContentType(f.ContentType).
		SetVersion(f.Version).
		SetUpdatedAt(f.UpdatedAt).
		Save(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return vfs.ErrNotFound
	}
	return nil
}

func (r *VFSRepository) DeleteFile(ctx context.Context, appID, id string) error {
	n, err := r.client.VFSFile.Delete().
		Where(vfsfile.ID(id), vfsfile.AppID(appID)).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return vfs.ErrNotFound
	}
	return nil
}

func (r *VFSRepository) ListFilesInFolder(ctx context.Context, appID string, folderID *string) ([]*vfs.File, error) {
	query := r.client.VFSFile.Query().Where(vfsfile.AppID(appID))
	if folderID == nil {
		query = query.Where(vfsfile.FolderIDIsNil())
	} else {
		query = query.Where(vfsfile.FolderID(*folderID))
	}
	rows, err := query.All(ctx)
	if err != nil {
		return nil, err
	}
	return toDomainFiles(rows), nil
}

func (r *VFSRepository) SearchFiles(ctx context.Context, appID, query string) ([]*vfs.File, error) {
	if query == "" {
		return nil, vfs.ErrEmptyQuery
	}
	rows, err := r.client.VFSFile.Query().
		Where(vfsfile.AppID(appID), vfsfile.ContentContainsFold(query)).
		All(ctx)
	if err != nil {
		return nil, err
	}
	return toDomainFiles(rows), nil
}

func (r *VFSRepository) CreateFileVersion(ctx context.Context, v *vfs.FileVersion) error {
	_, err := r.client.VFSFileVersion.Create().
		SetID(v.ID).
		SetFileID(v.FileID).
		SetVersion(v.Version).
		SetContent(v.Content).
		SetCreatedAt(v.CreatedAt).
		Save(ctx)
	return err
}

func (r *VFSRepository) ListFileVersions(ctx context.Context, fileID string) ([]*vfs.FileVersion, error) {
	rows, err := r.client.VFSFileVersion.Query().
		Where(vfsfileversion.FileID(fileID)).
		Order(ent.Asc(vfsfileversion.FieldVersion)).
		All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*vfs.FileVersion, len(rows))
	for i, row := range rows {
		out[i] = toDomainFileVersion(row)
	}
	return out, nil
}

func (r *VFSRepository) GetFileVersion(ctx context.Context, fileID, versionID string) (*vfs.FileVersion, error) {
	row, err := r.client.VFSFileVersion.Query().
		Where(vfsfileversion.FileID(fileID), vfsfileversion.ID(versionID)).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, fmt.Errorf("%w", vfs.ErrInvalidVersion)
		}
		return nil, err
	}
	return toDomainFileVersion(row), nil
}

func toDomainFolder(f *ent.VFSFolder) *vfs.Folder {
	return &vfs.Folder{
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

func toDomainFolders(rows []*ent.VFSFolder) []*vfs.Folder {
	out := make([]*vfs.Folder, len(rows))
	for i, r := range rows {
		out[i] = toDomainFolder(r)
	}
	return out
}

func toDomainFile(f *ent.VFSFile) *vfs.File {
	return &vfs.File{
		ID:          f.ID,
		AppID:       f.AppID,
		Name:        f.Name,
		FolderID:    f.FolderID,
		Content:     f.Content,
		ContentType: f.ContentType,
		Version:     f.Version,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

func toDomainFiles(rows []*ent.VFSFile) []*vfs.File {
	out := make([]*vfs.File, len(rows))
	for i, r := range rows {
		out[i] = toDomainFile(r)
	}
	return out
}

func toDomainFileVersion(v *ent.VFSFileVersion) *vfs.FileVersion {
	return &vfs.FileVersion{
		ID:        v.ID,
		FileID:    v.FileID,
		Version:   v.Version,
		Content:   v.Content,
		CreatedAt: v.CreatedAt,
	}
}
