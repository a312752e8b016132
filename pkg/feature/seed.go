package feature

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// seedFile is the on-disk shape of a declarative flag definition file.
type seedFile struct {
	Features []seedFeature `yaml:"features"`
}

type seedFeature struct {
	ID                string         `yaml:"id"`
	Name              string         `yaml:"name"`
	Description       string         `yaml:"description"`
	State             string         `yaml:"state"`
	Strategy          string         `yaml:"strategy"`
	RolloutPercentage *int           `yaml:"rollout_percentage"`
	RolloutTargetDate *time.Time     `yaml:"rollout_target_date"`
	ABTestGroups      []ABTestGroup  `yaml:"ab_test_groups"`
	ABTestActive      bool           `yaml:"ab_test_active"`
	TargetRoles       []string       `yaml:"target_roles"`
	TargetUserIDs     []string       `yaml:"target_user_ids"`
	ExcludedUserIDs   []string       `yaml:"excluded_user_ids"`
	Config            map[string]any `yaml:"config"`
	CreatedBy         string         `yaml:"created_by"`
}

// LoadSeedFile parses a YAML flag definition file into features ready
// for Service.Seed. Missing state defaults to disabled, missing strategy
// to all_users, missing rollout percentage to 100.
func LoadSeedFile(path string) ([]*Feature, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrInvalidFeature, err)
	}

	var file seedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, errors.Join(ErrInvalidFeature, err)
	}

	features := make([]*Feature, 0, len(file.Features))
	for i, sf := range file.Features {
		if sf.ID == "" {
			return nil, errors.Join(ErrInvalidFeature, fmt.Errorf("seed entry %d has no id", i))
		}

		f := &Feature{
			ID:                sf.ID,
			Name:              sf.Name,
			Description:       sf.Description,
			State:             FlagDisabled,
			Strategy:          StrategyAllUsers,
			Config:            sf.Config,
			IsActive:          true,
			RolloutPercentage: 100,
			RolloutTargetDate: sf.RolloutTargetDate,
			ABTestGroups:      sf.ABTestGroups,
			ABTestActive:      sf.ABTestActive,
			TargetRoles:       sf.TargetRoles,
			TargetUserIDs:     sf.TargetUserIDs,
			ExcludedUserIDs:   sf.ExcludedUserIDs,
			CreatedBy:         sf.CreatedBy,
		}
		if sf.State != "" {
			f.State = FlagState(sf.State)
		}
		if sf.Strategy != "" {
			f.Strategy = RolloutStrategy(sf.Strategy)
		}
		if sf.RolloutPercentage != nil {
			f.RolloutPercentage = *sf.RolloutPercentage
		}
		features = append(features, f)
	}

	return features, nil
}

// Seed creates any of the given features that don't exist yet and
// returns how many were created. Existing definitions are left alone so
// runtime changes made through Update survive a restart with the same
// seed file.
func (s *Service) Seed(ctx context.Context, features []*Feature) int {
	created := 0
	for _, f := range features {
		if f == nil {
			continue
		}
		if s.Get(ctx, f.ID) != nil {
			continue
		}
		if s.Create(ctx, f) {
			created++
		}
	}
	return created
}
