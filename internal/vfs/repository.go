package vfs

import "context"

// Repository persists folders, files, and file versions. The ent-
// backed implementation lives alongside the rest of the database
// wiring; InMemoryRepository below is a reference implementation used
// by this package's own tests and suitable for single-process,
// non-persistent deployments.
type Repository interface {
	CreateFolder(ctx context.Context, folder *Folder) error
	GetFolder(ctx context.Context, appID, id string) (*Folder, error)
	UpdateFolder(ctx context.Context, folder *Folder) error
	DeleteFolder(ctx context.Context, appID, id string) error
	ListFolderChildren(ctx context.Context, appID string, parentID *string) ([]*Folder, error)
	ListDescendantFolders(ctx context.Context, appID, folderID string) ([]*Folder, error)
	FolderNameTaken(ctx context.Context, appID string, parentID *string, name string, excludeID string) (bool, error)

	CreateFile(ctx context.Context, file *File) error
	GetFile(ctx context.Context, appID, id string) (*File, error)
	UpdateFile(ctx context.Context, file *File) error
	DeleteFile(ctx context.Context, appID, id string) error
	ListFilesInFolder(ctx context.Context, appID string, folderID *string) ([]*File, error)
	SearchFiles(ctx context.Context, appID, query string) ([]*File, error)

	CreateFileVersion(ctx context.Context, version *FileVersion) error
	ListFileVersions(ctx context.Context, fileID string) ([]*FileVersion, error)
	GetFileVersion(ctx context.Context, fileID, versionID string) (*FileVersion, error)
}
