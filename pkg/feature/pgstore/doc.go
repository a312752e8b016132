// Package pgstore provides the Postgres-backed feature.Store.
//
// Rows live in the features and feature_usage_events tables (see
// internal/db/migrations). Flag states and strategies are stored as
// text, A/B groups and free-form metadata as jsonb, targeting sets as
// text arrays. Usage counters are incremented in SQL
// (usage_count = usage_count + 1) so concurrent writers never lose
// updates.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	svc := feature.NewService(pgstore.New(pool))
package pgstore
