package feature

import (
	"slices"
	"strconv"
	"time"
)

// Evaluate decides whether the feature is enabled for a user at the
// given instant. The second return value is the assigned A/B group name,
// empty unless the flag is in an active A/B test and the user's bucket
// fell into a configured group.
//
// Evaluation is pure: it reads only the feature definition and its
// arguments, performs no I/O, and records nothing. Callers log usage
// separately.
func (f *Feature) Evaluate(userID int64, roles []string, now time.Time) (bool, string) {
	if f == nil || !f.IsActive {
		return false, ""
	}

	switch f.State {
	case FlagDisabled:
		return false, ""
	case FlagEnabled:
		return f.evaluateRollout(userID, roles, now), ""
	case FlagABTest:
		return f.evaluateABTest(userID)
	case FlagGradualRollout:
		return f.evaluateGradualRollout(userID, now), ""
	case FlagUserSegment:
		return f.evaluateSegment(userID, roles), ""
	default:
		// Unknown states read from storage fail closed.
		return false, ""
	}
}

// evaluateRollout dispatches on the rollout strategy for an enabled flag.
func (f *Feature) evaluateRollout(userID int64, roles []string, now time.Time) bool {
	switch f.Strategy {
	case StrategyAllUsers:
		return true
	case StrategyPercentage:
		return Bucket(userID) < f.RolloutPercentage
	case StrategyUserList:
		return slices.Contains(f.TargetUserIDs, strconv.FormatInt(userID, 10))
	case StrategyRoleBased:
		return intersects(roles, f.TargetRoles)
	case StrategyTimeBased:
		// No target date means the gate is already open.
		return f.RolloutTargetDate == nil || !now.Before(*f.RolloutTargetDate)
	default:
		return false
	}
}

// evaluateABTest assigns the user's bucket to a group by walking the
// groups in configured order and accumulating percentage thresholds.
// The first group whose cumulative threshold exceeds the bucket wins.
// Percentages summing to less than 100 leave the remaining buckets
// unassigned and disabled; over-subscription is accepted as-is.
func (f *Feature) evaluateABTest(userID int64) (bool, string) {
	if !f.ABTestActive || len(f.ABTestGroups) == 0 {
		return false, ""
	}

	bucket := Bucket(userID)
	cumulative := 0
	for _, g := range f.ABTestGroups {
		cumulative += g.Percentage
		if bucket < cumulative {
			return g.Enabled, g.Name
		}
	}
	return false, ""
}

// evaluateGradualRollout ramps the effective percentage linearly from
// creation time toward the target date, reaching 100 at the target.
func (f *Feature) evaluateGradualRollout(userID int64, now time.Time) bool {
	return float64(Bucket(userID)) < f.effectivePercentage(now)
}

// effectivePercentage computes the percentage in force at the given
// instant. Without a target date the configured percentage is static.
func (f *Feature) effectivePercentage(now time.Time) float64 {
	if f.RolloutTargetDate == nil {
		return float64(f.RolloutPercentage)
	}

	target := *f.RolloutTargetDate
	if !now.Before(target) {
		return 100
	}

	total := target.Sub(f.CreatedAt)
	if total <= 0 {
		// Target at or before creation: no ramp to interpolate over.
		return float64(f.RolloutPercentage)
	}

	progress := float64(now.Sub(f.CreatedAt)) / float64(total)
	progress = min(max(progress, 0), 1)
	return progress * float64(f.RolloutPercentage)
}

// evaluateSegment applies explicit targeting. Exclusion always wins,
// then the user list, then role intersection, then default-deny.
func (f *Feature) evaluateSegment(userID int64, roles []string) bool {
	id := strconv.FormatInt(userID, 10)

	if slices.Contains(f.ExcludedUserIDs, id) {
		return false
	}
	if len(f.TargetUserIDs) > 0 && slices.Contains(f.TargetUserIDs, id) {
		return true
	}
	if len(f.TargetRoles) > 0 && intersects(roles, f.TargetRoles) {
		return true
	}
	return false
}

func intersects(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	for _, v := range a {
		if slices.Contains(b, v) {
			return true
		}
	}
	return false
}
