package ports

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/finecision/finecision/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractID(prefix string) string {
	return prefix + "-" + time.Now().Format("20060102150405.000000000")
}

// RunWorkflowStoreContract runs a suite of tests to verify that a WorkflowStore
// implementation adheres to the defined interface contract.
func RunWorkflowStoreContract(t *testing.T, store WorkflowStore) {
	ctx := context.Background()
	id := contractID("contract-workflow")

	sample := func(id string) *domain.Workflow {
		return &domain.Workflow{
			ID:     id,
			Name:   "Contract",
			Active: true,
			Nodes: []domain.Node{
				{ID: "start", Type: domain.NodeTypeTrigger, Config: domain.TriggerConfig{},
					Variables: []domain.VariableDefinition{{ID: "age", Name: "Age", Kind: domain.VariableNumber}}},
				{ID: "adult", Type: domain.NodeTypeCondition,
					Config: domain.ConditionConfig{Variable: "age", Operator: domain.OpGreaterThanEqual, Value: 18.0}},
				{ID: "ok", Type: domain.NodeTypeAction, Config: domain.ActionConfig{ActionType: domain.ActionApprove}},
			},
			Connections: []domain.Connection{
				{Source: "start", Target: "adult", Type: domain.ConnectionDefault},
				{Source: "adult", Target: "ok", Type: domain.ConnectionTrue},
			},
			CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			UpdatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		wf := sample(id)
		require.NoError(t, store.Save(ctx, wf), "Save should not return error")

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, wf.Name, loaded.Name)
		assert.True(t, loaded.Active)
		assert.Equal(t, wf.Connections, loaded.Connections)
		require.Len(t, loaded.Nodes, 3)
		assert.Equal(t, wf.Nodes[2].Config, loaded.Nodes[2].Config)
		assert.Equal(t, wf.Nodes[0].Variables, loaded.Nodes[0].Variables)
		assert.True(t, wf.CreatedAt.Equal(loaded.CreatedAt))
	})

	t.Run("Save Replaces", func(t *testing.T) {
		wf := sample(id)
		wf.Name = "Renamed"
		wf.Active = false
		require.NoError(t, store.Save(ctx, wf))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", loaded.Name)
		assert.False(t, loaded.Active)
	})

	t.Run("Load Is Isolated", func(t *testing.T) {
		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		loaded.Nodes[0].ID = "mutated"

		again, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "start", again.Nodes[0].ID)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+id)
		assert.ErrorIs(t, err, domain.ErrWorkflowNotFound)
	})

	t.Run("List", func(t *testing.T) {
		other := id + "-2"
		require.NoError(t, store.Save(ctx, sample(other)))

		all, err := store.List(ctx)
		require.NoError(t, err)

		ids := make([]string, 0, len(all))
		for _, wf := range all {
			ids = append(ids, wf.ID)
		}
		assert.Contains(t, ids, id)
		assert.Contains(t, ids, other)
	})
}

// RunApplicationStoreContract runs a suite of tests to verify that an
// ApplicationStore implementation adheres to the defined interface contract.
func RunApplicationStoreContract(t *testing.T, store ApplicationStore) {
	ctx := context.Background()
	id := contractID("contract-application")

	t.Run("Save and Load", func(t *testing.T) {
		app := &domain.Application{
			ID:         id,
			WorkflowID: "wf",
			Variables:  map[string]any{"name": "Ada", "income": 1200.5},
			Status:     domain.StatusPending,
			CreatedAt:  time.Now().UTC(),
		}
		require.NoError(t, store.Save(ctx, app))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "wf", loaded.WorkflowID)
		assert.Equal(t, domain.StatusPending, loaded.Status)
		assert.Equal(t, "Ada", loaded.Variables["name"])
		assert.Equal(t, 1200.5, loaded.Variables["income"])
		assert.Nil(t, loaded.CreditScore)
	})

	t.Run("Save Decision", func(t *testing.T) {
		app, err := store.Load(ctx, id)
		require.NoError(t, err)

		score := 42.0
		app.Apply(domain.ExecutionResult{Status: domain.StatusApproved, CreditScore: &score, Comment: "ok"})
		require.NoError(t, store.Save(ctx, app))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.ApplicationStatus(domain.StatusApproved), loaded.Status)
		require.NotNil(t, loaded.CreditScore)
		assert.Equal(t, 42.0, *loaded.CreditScore)
		assert.Equal(t, "ok", loaded.Comment)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+id)
		assert.ErrorIs(t, err, domain.ErrApplicationNotFound)
	})

	t.Run("List", func(t *testing.T) {
		other := id + "-2"
		require.NoError(t, store.Save(ctx, &domain.Application{ID: other, WorkflowID: "wf", Status: domain.StatusPending}))

		all, err := store.List(ctx)
		require.NoError(t, err)

		ids := make([]string, 0, len(all))
		for _, app := range all {
			ids = append(ids, app.ID)
		}
		assert.Contains(t, ids, id)
		assert.Contains(t, ids, other)
	})
}

// RunLockerContract verifies mutual exclusion and release for a DistributedLocker.
func RunLockerContract(t *testing.T, locker DistributedLocker) {
	ctx := context.Background()
	key := contractID("contract-lock")

	t.Run("Lock and Unlock", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)
		require.NotNil(t, unlock)
		require.NoError(t, unlock(ctx))
	})

	t.Run("Contention", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)

		blocked, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(blocked, key, 5*time.Second)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		require.NoError(t, unlock(ctx))

		unlock, err = locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)
		require.NoError(t, unlock(ctx))
	})

	t.Run("Serializes Critical Sections", func(t *testing.T) {
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			inside  int
			overlap bool
		)
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock, err := locker.Lock(ctx, key+"-serial", 5*time.Second)
				if err != nil {
					return
				}
				mu.Lock()
				inside++
				if inside > 1 {
					overlap = true
				}
				mu.Unlock()

				time.Sleep(10 * time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				_ = unlock(ctx)
			}()
		}
		wg.Wait()
		assert.False(t, overlap, "two holders were inside the critical section")
	})
}
