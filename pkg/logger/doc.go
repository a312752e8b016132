// Package logger provides a context-aware factory around log/slog:
// functional options for configuration, attribute helpers with
// consistent keys, and transparent injection of context values into
// every record.
//
// New builds the concrete slog handler (text or JSON) and wraps it with
// LogHandlerDecorator, which runs registered ContextExtractor callbacks
// on each Handle call. WithDevelopment/WithStaging/WithProduction apply
// sensible per-environment presets.
//
//	log := logger.New(
//	    logger.WithProduction("featuregate"),
//	    logger.WithContextValue("request_id", ctxKeyRequestID),
//	)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "feature evaluated",
//	    logger.FeatureID("beta_pod_features"),
//	    logger.UserID(42),
//	    logger.Bucket(17),
//	)
//
// Attribute helpers (FeatureID, UserID, Bucket, ABGroup, EventType, ...)
// keep key naming uniform across the codebase.
package logger
