// Package vfs implements the app-scoped virtual filesystem: nested
// folders up to a bounded depth, versioned files, and the move/
// rename/search operations the kernel exposes over it.
package vfs

import (
	"errors"
	"time"
)

// MaxDepth bounds folder nesting, matching ent/schema.MaxVFSDepth. It
// is duplicated here (rather than imported from ent/schema, a
// codegen-input package with no business logic of its own) so this
// package has no build dependency on the schema package.
const MaxDepth = 8

var (
	ErrNotFound          = errors.New("vfs: not found")
	ErrDepthExceeded     = errors.New("vfs: folder depth limit exceeded")
	ErrSelfReference     = errors.New("vfs: cannot move a folder into itself")
	ErrCircularReference = errors.New("vfs: move would create a circular reference")
	ErrNameConflict      = errors.New("vfs: a sibling with that name already exists")
	ErrEmptyQuery        = errors.New("vfs: search query must not be empty")
	ErrInvalidFolder     = errors.New("vfs: target folder does not exist")
	ErrInvalidVersion    = errors.New("vfs: version does not exist for this file")
)

// Folder is an app-scoped node in the folder tree.
type Folder struct {
	ID        string
	AppID     string
	Name      string
	ParentID  *string
	Depth     int
	Metadata  map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// File is an app-scoped, optionally-foldered document with
// auto-versioned content.
type File struct {
	ID          string
	AppID       string
	Name        string
	FolderID    *string
	Content     string
	ContentType string
	Version     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FileVersion is an immutable snapshot of a File's content taken just
// before an overwrite or restore.
type FileVersion struct {
	ID        string
	FileID    string
	Version   int
	Content   string
	CreatedAt time.Time
}

func timeNow() time.Time { return time.Now() }
