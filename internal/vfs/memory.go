package vfs

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// InMemoryRepository is a non-persistent Repository backed by maps,
// guarded by a single mutex. It is a reference implementation: the
// production deployment persists through the ent-generated client
// against the VFSFolder/VFSFile/VFSFileVersion schemas instead.
type InMemoryRepository struct {
	mu       sync.Mutex
	folders  map[string]*Folder
	files    map[string]*File
	versions map[string][]*FileVersion // keyed by file id
}

// NewInMemoryRepository constructs an empty InMemoryRepository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		folders:  make(map[string]*Folder),
		files:    make(map[string]*File),
		versions: make(map[string][]*FileVersion),
	}
}

func cloneFolder(f *Folder) *Folder {
	cp := *f
	if f.ParentID != nil {
		id := *f.ParentID
		cp.ParentID = &id
	}
	if f.Metadata != nil {
		cp.Metadata = make(map[string]any, len(f.Metadata))
		for k, v := range f.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

func cloneFile(f *File) *File {
	cp := *f
	if f.FolderID != nil {
		id := *f.FolderID
		cp.FolderID = &id
	}
	return &cp
}

func (r *InMemoryRepository) CreateFolder(ctx context.Context, folder *Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.folders[folder.ID] = cloneFolder(folder)
	return nil
}

func (r *InMemoryRepository) GetFolder(ctx context.Context, appID, id string) (*Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.folders[id]
	if !ok || f.AppID != appID {
		return nil, ErrNotFound
	}
	return cloneFolder(f), nil
}

func (r *InMemoryRepository) UpdateFolder(ctx context.Context, folder *Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.folders[folder.ID]; !ok {
		return ErrNotFound
	}
	r.folders[folder.ID] = cloneFolder(folder)
	return nil
}

func (r *InMemoryRepository) DeleteFolder(ctx context.Context, appID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.folders[id]
	if !ok || f.AppID != appID {
		return ErrNotFound
	}
	delete(r.folders, id)
	return nil
}

func (r *InMemoryRepository) ListFolderChildren(ctx context.Context, appID string, parentID *string) ([]*Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Folder
	for _, f := range r.folders {
		if f.AppID != appID {
			continue
		}
		if samePtr(f.ParentID, parentID) {
			out = append(out, cloneFolder(f))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *InMemoryRepository) ListDescendantFolders(ctx context.Context, appID, folderID string) ([]*Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Folder
	frontier := []string{folderID}
	for len(frontier) > 0 {
		var next []string
		for _, pid := range frontier {
			for _, f := range r.folders {
				if f.AppID == appID && f.ParentID != nil && *f.ParentID == pid {
					out = append(out, cloneFolder(f))
					next = append(next, f.ID)
				}
			}
		}
		frontier = next
	}
	return out, nil
}

func (r *InMemoryRepository) FolderNameTaken(ctx context.Context, appID string, parentID *string, name string, excludeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.folders {
		if f.ID == excludeID {
			continue
		}
		if f.AppID == appID && samePtr(f.ParentID, parentID) && f.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *InMemoryRepository) CreateFile(ctx context.Context, file *File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[file.ID] = cloneFile(file)
	return nil
}

func (r *InMemoryRepository) GetFile(ctx context.Context, appID, id string) (*File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[id]
	if !ok || f.AppID != appID {
		return nil, ErrNotFound
	}
	return cloneFile(f), nil
}

func (r *InMemoryRepository) UpdateFile(ctx context.Context, file *File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[file.ID]; !ok {
		return ErrNotFound
	}
	r.files[file.ID] = cloneFile(file)
	return nil
}

func (r *InMemoryRepository) DeleteFile(ctx context.Context, appID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[id]
	if !ok || f.AppID != appID {
		return ErrNotFound
	}
	delete(r.files, id)
	delete(r.versions, id)
	return nil
}

func (r *InMemoryRepository) ListFilesInFolder(ctx context.Context, appID string, folderID *string) ([]*File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*File
	for _, f := range r.files {
		if f.AppID != appID {
			continue
		}
		if samePtr(f.FolderID, folderID) {
			out = append(out, cloneFile(f))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *InMemoryRepository) SearchFiles(ctx context.Context, appID, query string) ([]*File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lowered := strings.ToLower(query)
	var out []*File
	for _, f := range r.files {
		if f.AppID == appID && strings.Contains(strings.ToLower(f.Name), lowered) {
			out = append(out, cloneFile(f))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *InMemoryRepository) CreateFileVersion(ctx context.Context, version *FileVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *version
	r.versions[version.FileID] = append(r.versions[version.FileID], &cp)
	return nil
}

func (r *InMemoryRepository) ListFileVersions(ctx context.Context, fileID string) ([]*FileVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	versions := r.versions[fileID]
	out := make([]*FileVersion, len(versions))
	copy(out, versions)
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out, nil
}

func (r *InMemoryRepository) GetFileVersion(ctx context.Context, fileID, versionID string) (*FileVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.versions[fileID] {
		if v.ID == versionID {
			cp := *v
			return &cp, nil
		}
	}
	return nil, ErrInvalidVersion
}

func samePtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

var _ Repository = (*InMemoryRepository)(nil)
