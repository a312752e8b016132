package feature

import "errors"

// Predefined errors for the feature package. The Service converts these
// to false/nil/empty results at its boundary; Store implementations
// return them directly.
var (
	// ErrFeatureNotFound indicates no active feature exists for the id.
	ErrFeatureNotFound = errors.New("feature not found")

	// ErrFeatureExists indicates a create hit an existing feature id.
	ErrFeatureExists = errors.New("feature already exists")

	// ErrInvalidFeature indicates the provided feature definition is invalid.
	ErrInvalidFeature = errors.New("invalid feature definition")

	// ErrStoreFailure indicates the underlying record store failed.
	ErrStoreFailure = errors.New("feature store operation failed")
)

// IsNotFound reports whether err means the feature does not exist, as
// opposed to a store failure worth logging.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrFeatureNotFound)
}
