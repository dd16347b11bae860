package rabbit

import (
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	// ErrConnectionFailed is returned when connection to RabbitMQ cannot be established
	ErrConnectionFailed = errors.New("connection failed")

	// ErrChannelClosed is returned when a subscription's channel closes under it
	ErrChannelClosed = errors.New("channel closed")

	// ErrPublishFailed wraps every error returned by Send
	ErrPublishFailed = errors.New("publish failed")

	// ErrPublishNacked is returned when the broker negatively confirms a publish
	ErrPublishNacked = errors.New("message nacked by broker")

	// ErrConsumeFailed is returned when a subscription cannot be set up
	ErrConsumeFailed = errors.New("consume failed")

	// ErrAckFailed wraps errors from acknowledging a delivery
	ErrAckFailed = errors.New("ack failed")

	// ErrClientClosed is returned by Send and Subscribe after GracefulShutdown
	ErrClientClosed = errors.New("rabbit client closed")
)

// IsPublishError reports whether err came from Send.
func IsPublishError(err error) bool {
	return errors.Is(err, ErrPublishFailed)
}

// IsClientClosedError reports whether err was caused by using a shut down client.
func IsClientClosedError(err error) bool {
	return errors.Is(err, ErrClientClosed)
}

// IsRetryableError reports whether err is a transient connection or channel
// failure that a new channel on a reconnected connection may not hit.
func IsRetryableError(err error) bool {
	if errors.Is(err, amqp.ErrClosed) || errors.Is(err, ErrChannelClosed) || errors.Is(err, ErrConnectionFailed) {
		return true
	}

	var amqpErr *amqp.Error
	if errors.As(err, &amqpErr) {
		switch amqpErr.Code {
		case amqp.ConnectionForced, amqp.InternalError, amqp.ResourceError, amqp.FrameError:
			return true
		case amqp.AccessRefused, amqp.NotFound, amqp.PreconditionFailed, amqp.NotAllowed:
			return false
		}
		return amqpErr.Recover
	}

	return false
}
