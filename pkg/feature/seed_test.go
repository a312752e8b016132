package feature_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progressmethod/featuregate/pkg/feature"
)

const seedYAML = `features:
  - id: beta_pod_features
    name: Beta pod features
    state: enabled
    strategy: percentage
    rollout_percentage: 30
    created_by: admin
  - id: new_onboarding
    name: New onboarding flow
    state: ab_test
    ab_test_active: true
    ab_test_groups:
      - name: control
        percentage: 50
        enabled: false
      - name: treatment
        percentage: 50
        enabled: true
  - id: quiet_hours
`

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "features.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSeedFile(t *testing.T) {
	t.Parallel()

	t.Run("ParsesDefinitions", func(t *testing.T) {
		t.Parallel()
		features, err := feature.LoadSeedFile(writeSeedFile(t, seedYAML))
		require.NoError(t, err)
		require.Len(t, features, 3)

		beta := features[0]
		assert.Equal(t, "beta_pod_features", beta.ID)
		assert.Equal(t, feature.FlagEnabled, beta.State)
		assert.Equal(t, feature.StrategyPercentage, beta.Strategy)
		assert.Equal(t, 30, beta.RolloutPercentage)
		assert.True(t, beta.IsActive)
		assert.Equal(t, "admin", beta.CreatedBy)

		ab := features[1]
		assert.Equal(t, feature.FlagABTest, ab.State)
		assert.True(t, ab.ABTestActive)
		require.Len(t, ab.ABTestGroups, 2)
		assert.Equal(t, "control", ab.ABTestGroups[0].Name)

		// Entries with only an id get conservative defaults.
		quiet := features[2]
		assert.Equal(t, feature.FlagDisabled, quiet.State)
		assert.Equal(t, feature.StrategyAllUsers, quiet.Strategy)
		assert.Equal(t, 100, quiet.RolloutPercentage)
	})

	t.Run("MissingFile", func(t *testing.T) {
		t.Parallel()
		_, err := feature.LoadSeedFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("MalformedYAML", func(t *testing.T) {
		t.Parallel()
		_, err := feature.LoadSeedFile(writeSeedFile(t, "features: [{"))
		assert.Error(t, err)
	})

	t.Run("EntryWithoutID", func(t *testing.T) {
		t.Parallel()
		_, err := feature.LoadSeedFile(writeSeedFile(t, "features:\n  - name: nameless\n"))
		assert.ErrorIs(t, err, feature.ErrInvalidFeature)
	})
}

func TestSeed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	features, err := feature.LoadSeedFile(writeSeedFile(t, seedYAML))
	require.NoError(t, err)

	svc, _ := newTestService(t)
	assert.Equal(t, 3, svc.Seed(ctx, features))
	assert.Len(t, svc.GetAll(ctx), 3)

	// Seeding again leaves existing definitions untouched.
	require.True(t, svc.Disable(ctx, "beta_pod_features"))
	assert.Equal(t, 0, svc.Seed(ctx, features))

	f := svc.Get(ctx, "beta_pod_features")
	require.NotNil(t, f)
	assert.Equal(t, feature.FlagDisabled, f.State)
}
