package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/promptforge/core/ent"
	"github.com/promptforge/core/ent/project"
	"github.com/promptforge/core/ent/prompt"
	"github.com/promptforge/core/ent/promptversion"
)

// PromptService manages Prompt lifecycle: creation, content-changing
// updates that snapshot the prior version, and the EnsurePromptInProject
// idempotence helper.
type PromptService struct {
	client *ent.Client
}

// NewPromptService constructs a PromptService.
func NewPromptService(client *ent.Client) *PromptService {
	return &PromptService{client: client}
}

// CreatePrompt creates a new prompt, optionally scoped to projectID.
func (s *PromptService) CreatePrompt(ctx context.Context, content string, title *string, projectID *string) (*ent.Prompt, error) {
	if content == "" {
		return nil, NewValidationError("content", "required")
	}
	if projectID != nil {
		if _, err := s.requireActiveProject(ctx, *projectID); err != nil {
			return nil, err
		}
	}

	create := s.client.Prompt.Create().
		SetID(uuid.NewString()).
		SetContent(content).
		SetVersion(1)
	if title != nil {
		create = create.SetTitle(*title)
	}
	if projectID != nil {
		create = create.SetProjectID(*projectID)
	}
	return create.Save(ctx)
}

// EnsurePromptInProject returns the prompt with the given title inside
// projectID, creating it with content if absent. Calling it twice with
// the same (projectID, title) never creates a duplicate prompt — the
// idempotence law named in §8/§12.
func (s *PromptService) EnsurePromptInProject(ctx context.Context, projectID, title, content string) (*ent.Prompt, error) {
	if _, err := s.requireActiveProject(ctx, projectID); err != nil {
		return nil, err
	}

	existing, err := s.client.Prompt.Query().
		Where(prompt.ProjectID(projectID), prompt.Title(title)).
		Only(ctx)
	switch {
	case ent.IsNotFound(err):
		return s.CreatePrompt(ctx, content, &title, &projectID)
	case err != nil:
		return nil, err
	default:
		return existing, nil
	}
}

// UpdateContent overwrites a prompt's content, snapshotting the prior
// content into an immutable PromptVersion and bumping version. Title-
// only updates (newContent nil) never create a version, per §3.
func (s *PromptService) UpdateContent(ctx context.Context, id string, newContent *string, newTitle *string) (*ent.Prompt, error) {
	p, err := s.client.Prompt.Get(ctx, id)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	update := p.Update()
	if newTitle != nil {
		update = update.SetTitle(*newTitle)
	}
	if newContent == nil || *newContent == p.Content {
		return update.Save(ctx)
	}

	tx, err := s.client.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}

	_, err = tx.PromptVersion.Create().
		SetID(uuid.NewString()).
		SetPromptID(p.ID).
		SetVersion(p.Version).
		SetContent(p.Content).
		Save(ctx)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("snapshotting prior version: %w", err)
	}

	txUpdate := tx.Prompt.UpdateOneID(p.ID).
		SetContent(*newContent).
		SetVersion(p.Version + 1)
	if newTitle != nil {
		txUpdate = txUpdate.SetTitle(*newTitle)
	}
	updated, err := txUpdate.Save(ctx)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("updating prompt: %w", err)
	}

	return updated, tx.Commit()
}

// GetPrompt returns a prompt by id.
func (s *PromptService) GetPrompt(ctx context.Context, id string) (*ent.Prompt, error) {
	p, err := s.client.Prompt.Get(ctx, id)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListVersions returns a prompt's immutable version history, oldest
// first.
func (s *PromptService) ListVersions(ctx context.Context, promptID string) ([]*ent.PromptVersion, error) {
	return s.client.Prompt.QueryVersions(&ent.Prompt{ID: promptID}).
		Order(ent.Asc(promptversion.FieldVersion)).
		All(ctx)
}

func (s *PromptService) requireActiveProject(ctx context.Context, id string) (*ent.Project, error) {
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
	if p.Status == project.StatusArchived {
		return nil, ErrArchived
	}
	return p, nil
}
