package kafka

import "errors"

var (
	// ErrSendFailed wraps every failed write.
	ErrSendFailed = errors.New("kafka: send failed")

	// ErrFetchFailed is returned when a subscription cannot read further.
	ErrFetchFailed = errors.New("kafka: fetch failed")

	// ErrCommitFailed wraps offset commit failures returned by Ack.
	ErrCommitFailed = errors.New("kafka: commit failed")

	// ErrClientClosed is returned after GracefulShutdown.
	ErrClientClosed = errors.New("kafka: client is closed")
)

// IsSendError checks if the error is a failed write.
func IsSendError(err error) bool {
	return errors.Is(err, ErrSendFailed)
}

// IsClientClosedError checks if the error is a closed client error.
func IsClientClosedError(err error) bool {
	return errors.Is(err, ErrClientClosed)
}
