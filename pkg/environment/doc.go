// Package environment propagates the application environment
// (development, staging, production) through context.Context and into
// structured logs.
//
// The logger package consumes the Environment constants for its presets;
// LoggerExtractor plugs into logger.WithContextExtractors so records
// carry the environment whenever it is set on the context.
package environment
