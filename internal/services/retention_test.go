package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptforge/core/ent/optimization"
	"github.com/promptforge/core/internal/config"
	"github.com/promptforge/core/internal/testdb"
)

func TestRetentionServiceSweepDeletesExpiredTerminalOptimizations(t *testing.T) {
	client := testdb.NewTestClient(t)
	ctx := context.Background()

	expired, err := client.Client.Optimization.Create().
		SetID(uuid.New()).
		SetRawPrompt("old").
		SetStatus(optimization.StatusCompleted).
		SetCreatedAt(time.Now().Add(-48 * time.Hour)).
		Save(ctx)
	require.NoError(t, err)

	fresh, err := client.Client.Optimization.Create().
		SetID(uuid.New()).
		SetRawPrompt("new").
		SetStatus(optimization.StatusCompleted).
		Save(ctx)
	require.NoError(t, err)

	stillRunning, err := client.Client.Optimization.Create().
		SetID(uuid.New()).
		SetRawPrompt("running").
		SetStatus(optimization.StatusRunning).
		SetCreatedAt(time.Now().Add(-48 * time.Hour)).
		Save(ctx)
	require.NoError(t, err)

	cfg := &config.RetentionConfig{OptimizationTTL: 24 * time.Hour, CleanupInterval: time.Hour}
	svc := NewRetentionService(cfg, client.Client)
	svc.sweep(ctx)

	_, err = client.Client.Optimization.Get(ctx, expired.ID)
	assert.Error(t, err)

	_, err = client.Client.Optimization.Get(ctx, fresh.ID)
	require.NoError(t, err)

	_, err = client.Client.Optimization.Get(ctx, stillRunning.ID)
	require.NoError(t, err)
}
