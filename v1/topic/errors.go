package topic

import "errors"

var (
	// ErrUnsupportedOperation is returned when a topic is produced to or
	// consumed from without the matching capability.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrUndeclaredName is returned when a topic has no physical name for the
	// requested environment.
	ErrUndeclaredName = errors.New("topic name not declared for environment")

	// ErrInvalidTopic is returned by Validate for inconsistent declarations.
	ErrInvalidTopic = errors.New("invalid topic declaration")
)

// IsUnsupportedOperationError checks if the error is an unsupported operation error.
func IsUnsupportedOperationError(err error) bool {
	return errors.Is(err, ErrUnsupportedOperation)
}
