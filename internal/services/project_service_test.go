package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptforge/core/ent/project"
	"github.com/promptforge/core/internal/testdb"
)

func TestProjectServiceCreateProjectEnforcesDepthCap(t *testing.T) {
	client := testdb.NewTestClient(t)
	svc := NewProjectService(client.Client)
	ctx := context.Background()

	var parentID *string
	for i := 0; i < maxProjectDepth+2; i++ {
		p, err := svc.CreateProject(ctx, "level", parentID, nil)
		if i <= maxProjectDepth {
			require.NoError(t, err)
			id := p.ID
			parentID = &id
		} else {
			require.ErrorIs(t, err, ErrMaxDepthExceeded)
		}
	}
}

func TestProjectServiceCreateProjectRejectsDuplicateNameInScope(t *testing.T) {
	client := testdb.NewTestClient(t)
	svc := NewProjectService(client.Client)
	ctx := context.Background()

	_, err := svc.CreateProject(ctx, "dup", nil, nil)
	require.NoError(t, err)

	_, err = svc.CreateProject(ctx, "dup", nil, nil)
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestProjectServiceEnsureProjectByNameIsIdempotent(t *testing.T) {
	client := testdb.NewTestClient(t)
	svc := NewProjectService(client.Client)
	ctx := context.Background()

	first, err := svc.EnsureProjectByName(ctx, "team-a", nil)
	require.NoError(t, err)

	second, err := svc.EnsureProjectByName(ctx, "team-a", nil)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	count, err := client.Client.Project.Query().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestProjectServiceEnsureProjectByNameReactivatesSoftDeleted(t *testing.T) {
	client := testdb.NewTestClient(t)
	svc := NewProjectService(client.Client)
	ctx := context.Background()

	created, err := svc.CreateProject(ctx, "reviver", nil, nil)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteProject(ctx, created.ID))

	revived, err := svc.EnsureProjectByName(ctx, "reviver", nil)
	require.NoError(t, err)
	assert.Equal(t, created.ID, revived.ID)
	assert.Equal(t, project.StatusActive, revived.Status)
}

func TestProjectServiceArchivedProjectRejectsChildCreation(t *testing.T) {
	client := testdb.NewTestClient(t)
	svc := NewProjectService(client.Client)
	ctx := context.Background()

	parent, err := svc.CreateProject(ctx, "parent", nil, nil)
	require.NoError(t, err)
	_, err = svc.ArchiveProject(ctx, parent.ID)
	require.NoError(t, err)

	_, err = svc.CreateProject(ctx, "child", &parent.ID, nil)
	require.ErrorIs(t, err, ErrArchived)
}

func TestProjectServiceDeletedProjectIsNotFound(t *testing.T) {
	client := testdb.NewTestClient(t)
	svc := NewProjectService(client.Client)
	ctx := context.Background()

	p, err := svc.CreateProject(ctx, "gone", nil, nil)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteProject(ctx, p.ID))

	_, err = svc.GetProject(ctx, p.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
