package feature

import (
	"time"
)

// FlagState determines which rollout path governs a feature.
type FlagState string

const (
	// FlagEnabled exposes the feature according to its rollout strategy.
	FlagEnabled FlagState = "enabled"
	// FlagDisabled hides the feature from everyone.
	FlagDisabled FlagState = "disabled"
	// FlagABTest assigns users to test groups by stable bucket.
	FlagABTest FlagState = "ab_test"
	// FlagGradualRollout ramps the rollout percentage toward a target date.
	FlagGradualRollout FlagState = "gradual_rollout"
	// FlagUserSegment gates by explicit include/exclude lists and roles.
	FlagUserSegment FlagState = "user_segment"
)

// RolloutStrategy selects how an enabled feature is distributed to users.
// It is only consulted when the flag state is FlagEnabled.
type RolloutStrategy string

const (
	StrategyAllUsers   RolloutStrategy = "all_users"
	StrategyPercentage RolloutStrategy = "percentage"
	StrategyUserList   RolloutStrategy = "user_list"
	StrategyRoleBased  RolloutStrategy = "role_based"
	StrategyGeographic RolloutStrategy = "geographic"
	StrategyTimeBased  RolloutStrategy = "time_based"
)

// ABTestGroup is one named slice of an A/B test. Groups are kept as an
// ordered slice rather than a map: assignment walks them in configured
// order accumulating percentage thresholds, so order is part of the
// contract.
type ABTestGroup struct {
	Name       string `json:"name" yaml:"name"`
	Percentage int    `json:"percentage" yaml:"percentage"`
	Enabled    bool   `json:"enabled" yaml:"enabled"`
}

// Feature is a named capability gate with its full rollout configuration.
type Feature struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	State       FlagState       `json:"state"`
	Strategy    RolloutStrategy `json:"rollout_strategy"`
	Config      map[string]any  `json:"config,omitempty"`

	// IsActive false means soft-deleted: invisible to reads, never
	// physically removed.
	IsActive bool `json:"is_active"`

	RolloutPercentage int        `json:"rollout_percentage"`
	RolloutTargetDate *time.Time `json:"rollout_target_date,omitempty"`

	ABTestGroups []ABTestGroup `json:"ab_test_groups,omitempty"`
	ABTestActive bool          `json:"ab_test_active"`

	TargetRoles     []string `json:"target_user_roles,omitempty"`
	TargetUserIDs   []string `json:"target_user_ids,omitempty"`
	ExcludedUserIDs []string `json:"excluded_user_ids,omitempty"`

	// Analytics fields, mutated only by the usage-logging path.
	UsageCount  int64      `json:"usage_count"`
	SuccessRate float64    `json:"success_rate"`
	LastUsed    *time.Time `json:"last_used,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedBy string    `json:"created_by,omitempty"`
}

// Patch is a partial update of a feature. Nil pointer fields and nil
// slices are left untouched; set fields overwrite.
type Patch struct {
	Name              *string
	Description       *string
	State             *FlagState
	Strategy          *RolloutStrategy
	Config            map[string]any
	IsActive          *bool
	RolloutPercentage *int
	RolloutTargetDate *time.Time
	ABTestGroups      []ABTestGroup
	ABTestActive      *bool
	TargetRoles       []string
	TargetUserIDs     []string
	ExcludedUserIDs   []string
}

// IsZero reports whether the patch carries no changes.
func (p Patch) IsZero() bool {
	return p.Name == nil && p.Description == nil && p.State == nil &&
		p.Strategy == nil && p.Config == nil && p.IsActive == nil &&
		p.RolloutPercentage == nil && p.RolloutTargetDate == nil &&
		p.ABTestGroups == nil && p.ABTestActive == nil &&
		p.TargetRoles == nil && p.TargetUserIDs == nil &&
		p.ExcludedUserIDs == nil
}

// Apply writes the patch onto f and stamps UpdatedAt.
func (p Patch) Apply(f *Feature, updatedAt time.Time) {
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
	if p.State != nil {
		f.State = *p.State
	}
	if p.Strategy != nil {
		f.Strategy = *p.Strategy
	}
	if p.Config != nil {
		f.Config = p.Config
	}
	if p.IsActive != nil {
		f.IsActive = *p.IsActive
	}
	if p.RolloutPercentage != nil {
		f.RolloutPercentage = *p.RolloutPercentage
	}
	if p.RolloutTargetDate != nil {
		f.RolloutTargetDate = p.RolloutTargetDate
	}
	if p.ABTestGroups != nil {
		f.ABTestGroups = p.ABTestGroups
	}
	if p.ABTestActive != nil {
		f.ABTestActive = *p.ABTestActive
	}
	if p.TargetRoles != nil {
		f.TargetRoles = p.TargetRoles
	}
	if p.TargetUserIDs != nil {
		f.TargetUserIDs = p.TargetUserIDs
	}
	if p.ExcludedUserIDs != nil {
		f.ExcludedUserIDs = p.ExcludedUserIDs
	}
	f.UpdatedAt = updatedAt
}

// EventType classifies a single feature usage event.
type EventType string

const (
	EventAccess           EventType = "access"
	EventSuccess          EventType = "success"
	EventError            EventType = "error"
	EventConversion       EventType = "conversion"
	EventEmergencyDisable EventType = "emergency_disable"
)

// UsageEvent is one append-only record of feature usage. Events are
// created once and never mutated or deleted by this package.
type UsageEvent struct {
	ID         string         `json:"id"`
	FeatureID  string         `json:"feature_id"`
	UserID     *int64         `json:"user_id,omitempty"` // resolved internal id, nil if lookup failed
	TelegramID int64          `json:"user_telegram_id"`
	Type       EventType      `json:"event_type"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	ABGroup    string         `json:"ab_test_group,omitempty"`
	CreatedAt  time.Time      `json:"timestamp"`
}
