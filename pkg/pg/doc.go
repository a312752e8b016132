// Package pg bootstraps the PostgreSQL layer: a pgx/v5 connection pool
// with startup retries, goose schema migrations, a health check, and
// error classifiers for the SQLSTATE codes the application cares about.
//
// Configuration comes from environment variables via the Config struct
// (see pkg/config for the loader). Typical startup:
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, slog.Default()); err != nil {
//		log.Fatal(err)
//	}
//
// Error helpers such as IsDuplicateKeyError and IsNotFoundError keep
// error classification out of query code: store implementations map
// them onto their own sentinel errors.
package pg
