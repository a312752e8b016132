package feature_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progressmethod/featuregate/pkg/feature"
)

func newTestService(t *testing.T, initial ...*feature.Feature) (*feature.Service, *feature.MemoryStore) {
	t.Helper()
	store, err := feature.NewMemoryStore(initial...)
	require.NoError(t, err)
	return feature.NewService(store), store
}

func TestServiceCRUD(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("CreateAndGet", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t)

		ok := svc.Create(ctx, &feature.Feature{
			ID:       "beta_pod_features",
			Name:     "Beta pod features",
			State:    feature.FlagEnabled,
			Strategy: feature.StrategyAllUsers,
			IsActive: true,
		})
		require.True(t, ok)

		f := svc.Get(ctx, "beta_pod_features")
		require.NotNil(t, f)
		assert.Equal(t, "Beta pod features", f.Name)
		assert.False(t, f.CreatedAt.IsZero())
		assert.False(t, f.UpdatedAt.IsZero())
	})

	t.Run("CreateRejectsMissingID", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t)
		assert.False(t, svc.Create(ctx, &feature.Feature{Name: "no id"}))
		assert.False(t, svc.Create(ctx, nil))
	})

	t.Run("CreateDuplicate", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t)
		require.True(t, svc.Create(ctx, &feature.Feature{ID: "dup", IsActive: true}))
		assert.False(t, svc.Create(ctx, &feature.Feature{ID: "dup", IsActive: true}))
	})

	t.Run("GetMissing", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t)
		assert.Nil(t, svc.Get(ctx, "nope"))
	})

	t.Run("Update", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, &feature.Feature{ID: "f1", Name: "old", IsActive: true})

		name := "new"
		require.True(t, svc.Update(ctx, "f1", feature.Patch{Name: &name}))

		f := svc.Get(ctx, "f1")
		require.NotNil(t, f)
		assert.Equal(t, "new", f.Name)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t)
		name := "x"
		assert.False(t, svc.Update(ctx, "missing_id", feature.Patch{Name: &name}))
	})

	t.Run("UpdateEmptyPatch", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, &feature.Feature{ID: "f1", IsActive: true})
		assert.False(t, svc.Update(ctx, "f1", feature.Patch{}))
	})

	t.Run("SoftDelete", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, &feature.Feature{
			ID: "f1", State: feature.FlagEnabled, Strategy: feature.StrategyAllUsers, IsActive: true,
		})

		require.True(t, svc.Delete(ctx, "f1"))
		assert.Nil(t, svc.Get(ctx, "f1"))
		assert.Empty(t, svc.GetAll(ctx))

		enabled, _ := svc.IsEnabled(ctx, "f1", 1, nil)
		assert.False(t, enabled)

		// The row is still there: a patch can restore it.
		active := true
		require.True(t, svc.Update(ctx, "f1", feature.Patch{IsActive: &active}))
		assert.NotNil(t, svc.Get(ctx, "f1"))
	})

	t.Run("GetAll", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t,
			&feature.Feature{ID: "a", IsActive: true},
			&feature.Feature{ID: "b", IsActive: true},
			&feature.Feature{ID: "c", IsActive: false},
		)
		assert.Len(t, svc.GetAll(ctx), 2)
	})
}

func TestServiceIsEnabled(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("MissingFeature", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t)
		enabled, group := svc.IsEnabled(ctx, "ghost", 1, nil)
		assert.False(t, enabled)
		assert.Empty(t, group)
	})

	t.Run("EnabledAllUsers", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, &feature.Feature{
			ID: "f1", State: feature.FlagEnabled, Strategy: feature.StrategyAllUsers, IsActive: true,
		})
		enabled, group := svc.IsEnabled(ctx, "f1", 1, nil)
		assert.True(t, enabled)
		assert.Empty(t, group)
	})

	t.Run("ABGroupSurfaces", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, &feature.Feature{
			ID: "x", State: feature.FlagABTest, IsActive: true, ABTestActive: true,
			ABTestGroups: []feature.ABTestGroup{
				{Name: "control", Percentage: 50, Enabled: false},
				{Name: "treatment", Percentage: 50, Enabled: true},
			},
		})

		enabled, group := svc.IsEnabled(ctx, "x", 72, nil) // bucket 20
		assert.False(t, enabled)
		assert.Equal(t, "control", group)

		enabled, group = svc.IsEnabled(ctx, "x", 436, nil) // bucket 70
		assert.True(t, enabled)
		assert.Equal(t, "treatment", group)
	})
}

func TestConvenienceOperations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("EnableDisable", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, &feature.Feature{ID: "f1", State: feature.FlagDisabled, IsActive: true})

		require.True(t, svc.Enable(ctx, "f1"))
		enabled, _ := svc.IsEnabled(ctx, "f1", 1, nil)
		assert.True(t, enabled)

		require.True(t, svc.Disable(ctx, "f1"))
		enabled, _ = svc.IsEnabled(ctx, "f1", 1, nil)
		assert.False(t, enabled)
	})

	t.Run("SetPercentageRollout", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, &feature.Feature{ID: "f1", IsActive: true})

		require.True(t, svc.SetPercentageRollout(ctx, "f1", 30))
		f := svc.Get(ctx, "f1")
		require.NotNil(t, f)
		assert.Equal(t, feature.FlagGradualRollout, f.State)
		assert.Equal(t, feature.StrategyPercentage, f.Strategy)
		assert.Equal(t, 30, f.RolloutPercentage)

		// No target date: static percentage applies immediately.
		enabled, _ := svc.IsEnabled(ctx, "f1", 72, nil) // bucket 20
		assert.True(t, enabled)
		enabled, _ = svc.IsEnabled(ctx, "f1", 436, nil) // bucket 70
		assert.False(t, enabled)
	})

	t.Run("CreateABTest", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, &feature.Feature{ID: "x", IsActive: true})

		require.True(t, svc.CreateABTest(ctx, "x", []feature.ABTestGroup{
			{Name: "control", Percentage: 50, Enabled: false},
			{Name: "treatment", Percentage: 50, Enabled: true},
		}))

		f := svc.Get(ctx, "x")
		require.NotNil(t, f)
		assert.Equal(t, feature.FlagABTest, f.State)
		assert.True(t, f.ABTestActive)
		require.Len(t, f.ABTestGroups, 2)
		assert.Equal(t, "control", f.ABTestGroups[0].Name)
	})

	t.Run("EmergencyDisable", func(t *testing.T) {
		t.Parallel()
		svc, store := newTestService(t, &feature.Feature{
			ID: "f1", State: feature.FlagEnabled, Strategy: feature.StrategyAllUsers, IsActive: true,
		})

		require.True(t, svc.EmergencyDisable(ctx, "f1", "incident"))

		enabled, group := svc.IsEnabled(ctx, "f1", 42, nil)
		assert.False(t, enabled)
		assert.Empty(t, group)

		events, err := store.ListUsageEvents(ctx, "f1", time.Time{})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, feature.EventEmergencyDisable, events[0].Type)
		assert.Equal(t, "incident", events[0].Metadata["reason"])
	})

	t.Run("EmergencyDisableMissingShortCircuits", func(t *testing.T) {
		t.Parallel()
		svc, store := newTestService(t)

		assert.False(t, svc.EmergencyDisable(ctx, "ghost", "incident"))
		events, err := store.ListUsageEvents(ctx, "ghost", time.Time{})
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}

func TestLogUsage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("AccessIncrementsCounter", func(t *testing.T) {
		t.Parallel()
		svc, store := newTestService(t, &feature.Feature{
			ID: "f1", State: feature.FlagEnabled, Strategy: feature.StrategyAllUsers, IsActive: true,
		})

		svc.LogUsage(ctx, "f1", 1001, feature.EventAccess, nil, "")
		svc.LogUsage(ctx, "f1", 1002, feature.EventAccess, nil, "")

		f := svc.Get(ctx, "f1")
		require.NotNil(t, f)
		assert.Equal(t, int64(2), f.UsageCount)
		require.NotNil(t, f.LastUsed)

		events, err := store.ListUsageEvents(ctx, "f1", time.Time{})
		require.NoError(t, err)
		assert.Len(t, events, 2)
	})

	t.Run("NonAccessLeavesCounter", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, &feature.Feature{ID: "f1", IsActive: true})

		svc.LogUsage(ctx, "f1", 1001, feature.EventSuccess, nil, "")
		svc.LogUsage(ctx, "f1", 1001, feature.EventError, map[string]any{"error_type": "timeout"}, "")

		f := svc.Get(ctx, "f1")
		require.NotNil(t, f)
		assert.Equal(t, int64(0), f.UsageCount)
		assert.Nil(t, f.LastUsed)
	})

	t.Run("ResolvedUser", func(t *testing.T) {
		t.Parallel()
		store, err := feature.NewMemoryStore(&feature.Feature{ID: "f1", IsActive: true})
		require.NoError(t, err)
		svc := feature.NewService(store, feature.WithUserResolver(
			func(ctx context.Context, telegramID int64) (int64, error) {
				return telegramID + 5000, nil
			},
		))

		svc.LogUsage(ctx, "f1", 77, feature.EventAccess, nil, "")

		events, err := store.ListUsageEvents(ctx, "f1", time.Time{})
		require.NoError(t, err)
		require.Len(t, events, 1)
		require.NotNil(t, events[0].UserID)
		assert.Equal(t, int64(5077), *events[0].UserID)
		assert.Equal(t, int64(77), events[0].TelegramID)
	})

	t.Run("ResolverFailureIsBestEffort", func(t *testing.T) {
		t.Parallel()
		store, err := feature.NewMemoryStore(&feature.Feature{ID: "f1", IsActive: true})
		require.NoError(t, err)
		svc := feature.NewService(store, feature.WithUserResolver(
			func(ctx context.Context, telegramID int64) (int64, error) {
				return 0, errors.New("lookup unavailable")
			},
		))

		svc.LogUsage(ctx, "f1", 77, feature.EventAccess, nil, "")

		events, err := store.ListUsageEvents(ctx, "f1", time.Time{})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Nil(t, events[0].UserID)
	})
}
