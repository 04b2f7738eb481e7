package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/promptforge/core/ent"
	"github.com/promptforge/core/ent/project"
)

// maxProjectDepth duplicates ent/schema.MaxProjectDepth so this
// package, like internal/vfs, has no build dependency on the
// codegen-input ent/schema package.
const maxProjectDepth = 8

// ProjectService manages the Project tree: creation, archival,
// soft-deletion, and the EnsureProjectByName idempotence helper.
type ProjectService struct {
	client *ent.Client
}

// NewProjectService constructs a ProjectService.
func NewProjectService(client *ent.Client) *ProjectService {
	return &ProjectService{client: client}
}

// CreateProject creates a new project under parentID (nil for root),
// enforcing the depth cap and per-parent name uniqueness.
func (s *ProjectService) CreateProject(ctx context.Context, name string, parentID *string, description *string) (*ent.Project, error) {
	if name == "" {
		return nil, NewValidationError("name", "required")
	}

	depth := 0
	if parentID != nil {
		parent, err := s.getActive(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent.Status == project.StatusArchived {
			return nil, ErrArchived
		}
		depth = parent.Depth + 1
		if depth > maxProjectDepth {
			return nil, ErrMaxDepthExceeded
		}
	}

	taken, err := s.nameTaken(ctx, parentID, name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrAlreadyExists
	}

	create := s.client.Project.Create().
		SetID(uuid.NewString()).
		SetName(name).
		SetDepth(depth).
		SetStatus(project.StatusActive)
	if parentID != nil {
		create = create.SetParentID(*parentID)
	}
	if description != nil {
		create = create.SetDescription(*description)
	}
	return create.Save(ctx)
}

// EnsureProjectByName returns the active project named name under
// parentID, creating it if absent and reactivating it if it was
// soft-deleted — the idempotence law named in §8/§12: calling it twice
// with the same (name, parentID) never creates a duplicate.
func (s *ProjectService) EnsureProjectByName(ctx context.Context, name string, parentID *string) (*ent.Project, error) {
	query := s.client.Project.Query().Where(project.Name(name))
	if parentID == nil {
		query = query.Where(project.ParentIDIsNil())
	} else {
		query = query.Where(project.ParentID(*parentID))
	}

	existing, err := query.Only(ctx)
	switch {
	case ent.IsNotFound(err):
		return s.CreateProject(ctx, name, parentID, nil)
	case err != nil:
		return nil, err
	case existing.Status == project.StatusDeleted:
		return existing.Update().SetStatus(project.StatusActive).Save(ctx)
	default:
		return existing, nil
	}
}

// GetProject returns a project by id, treating a soft-deleted project
// as not found per §3 ("deleted invisible (404)").
func (s *ProjectService) GetProject(ctx context.Context, id string) (*ent.Project, error) {
	return s.getActive(ctx, id)
}

// ArchiveProject transitions a project to archived, rejecting further
// mutation until it is reactivated.
func (s *ProjectService) ArchiveProject(ctx context.Context, id string) (*ent.Project, error) {
	p, err := s.getActive(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.Update().SetStatus(project.StatusArchived).Save(ctx)
}

// DeleteProject soft-deletes a project (status=deleted); it becomes
// invisible to GetProject/ListChildren but is not physically removed.
func (s *ProjectService) DeleteProject(ctx context.Context, id string) error {
	p, err := s.getActive(ctx, id)
	if err != nil {
		return err
	}
	_, err = p.Update().SetStatus(project.StatusDeleted).Save(ctx)
	return err
}

// ListChildren returns the active, non-deleted children of parentID
// (nil lists root-level projects).
func (s *ProjectService) ListChildren(ctx context.Context, parentID *string) ([]*ent.Project, error) {
	query := s.client.Project.Query().Where(project.StatusNEQ(project.StatusDeleted))
	if parentID == nil {
		query = query.Where(project.ParentIDIsNil())
	} else {
		query = query.Where(project.ParentID(*parentID))
	}
	return query.All(ctx)
}

func (s *ProjectService) getActive(ctx context.Context, id string) (*ent.Project, error) {
	p, err := s.client.Project.Get(ctx, id)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if p.Status == project.StatusDeleted {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *ProjectService) nameTaken(ctx context.Context, parentID *string, name, excludeID string) (bool, error) {
	query := s.client.Project.Query().
		Where(project.Name(name), project.StatusNEQ(project.StatusDeleted))
	if parentID == nil {
		query = query.Where(project.ParentIDIsNil())
	} else {
		query = query.Where(project.ParentID(*parentID))
	}
	if excludeID != "" {
		query = query.Where(project.IDNEQ(excludeID))
	}
	exists, err := query.Exist(ctx)
	if err != nil {
		return false, fmt.Errorf("checking name uniqueness: %w", err)
	}
	return exists, nil
}
