// Package feature implements the feature control system of the Progress
// Method platform: flag definitions, per-user enablement decisions under
// five flag states, deterministic percentage and A/B bucketing, usage
// event logging, and window-based usage analytics.
//
// # Architecture
//
// The package is built around three pieces:
//
//  1. Feature - one capability gate with its rollout configuration
//  2. Service - CRUD, decisions, usage logging, analytics, and a
//     short-lived read cache over the store
//  3. Store - the persistence interface, with in-memory and Postgres
//     (pgstore) implementations
//
// A decision runs in two stages: the flag state picks the rollout path
// (enabled, disabled, A/B test, gradual rollout, user segment), then the
// path's own rule set decides. Unknown states and strategies read from
// storage fail closed to disabled.
//
// # Usage
//
//	store, err := feature.NewMemoryStore()
//	if err != nil {
//		log.Fatal(err)
//	}
//	svc := feature.NewService(store,
//		feature.WithLogger(slog.Default()),
//		feature.WithUserResolver(lookupUser),
//	)
//
//	svc.Create(ctx, &feature.Feature{
//		ID:                "beta_pod_features",
//		Name:              "Beta pod features",
//		State:             feature.FlagEnabled,
//		Strategy:          feature.StrategyPercentage,
//		RolloutPercentage: 30,
//		IsActive:          true,
//	})
//
//	enabled, group := svc.IsEnabled(ctx, "beta_pod_features", userID, roles)
//	if enabled {
//		// expose the feature
//	}
//	svc.LogUsage(ctx, "beta_pod_features", telegramID, feature.EventAccess, nil, group)
//
// # Error handling
//
// Service methods never return errors: missing features and store
// failures collapse to false, nil, or empty results, with failures
// logged through slog. Store implementations do return errors, using the
// package sentinels (ErrFeatureNotFound, ErrFeatureExists) so the
// Service can tell "absent" from "broken".
//
// # Determinism
//
// All percentage math derives from Bucket, an FNV-1a hash of the decimal
// user id mod 100. The same user therefore sees the same decision across
// processes and restarts, and raising a rollout percentage never turns a
// previously enabled user off.
//
// # Concurrency
//
// Decisions are pure reads and safe under unlimited concurrency. The
// read cache holds a whole-map expiry refreshed on populate and dropped
// under a write lock on every create/update/delete, bounding staleness
// to the configured TTL (5 minutes by default). Usage counters are
// incremented store-side in a single update expression; the application
// never read-modify-writes them.
package feature
