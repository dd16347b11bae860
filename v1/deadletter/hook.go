package deadletter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Aleph-Alpha/topicstream/v1/broker"
	"github.com/Aleph-Alpha/topicstream/v1/pipeline"
	"github.com/Aleph-Alpha/topicstream/v1/topic"
)

// Logger is the subset of the logger package used here.
type Logger interface {
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}

// Hook returns a consumer error hook that saves each failed message to store.
// The save outlives the cancellation of ctx so failures seen during shutdown
// are still kept. logger may be nil.
//
// A message carrying a message-id that is already stored for the same
// physical topic is not saved again, so a broker that requeues failed
// messages (rabbit Channel.RequeueOnError) yields one record per message.
// Messages without a message-id get one record per failed delivery.
func Hook(store Store, logger Logger) pipeline.ErrorHook {
	return func(ctx context.Context, t *topic.Topic, msg *broker.Message, err error) {
		ctx = context.WithoutCancel(ctx)
		r := NewRecord(t, msg, err, time.Now())

		if r.MessageID != "" {
			existing, listErr := store.List(ctx, Filter{PhysicalTopic: r.PhysicalTopic, MessageID: r.MessageID, Limit: 1})
			if listErr == nil && len(existing) > 0 {
				return
			}
			if listErr != nil && logger != nil {
				logger.ErrorWithContext(ctx, "failed to look up dead letter", listErr, map[string]interface{}{
					"topic":      msg.Topic,
					"message_id": r.MessageID,
				})
			}
		}

		if saveErr := store.Save(ctx, &r); saveErr != nil && logger != nil {
			logger.ErrorWithContext(ctx, "failed to save dead letter", saveErr, map[string]interface{}{
				"topic":     msg.Topic,
				"partition": msg.Partition,
				"offset":    msg.Offset,
			})
		}
	}
}

// Replayer sends stored dead letters back to their topics.
type Replayer struct {
	store  Store
	broker broker.Broker
	logger Logger
}

// NewReplayer creates a Replayer sending through b.
func NewReplayer(store Store, b broker.Broker) *Replayer {
	return &Replayer{store: store, broker: b}
}

// WithLogger sets the logger and returns the replayer for method chaining.
func (r *Replayer) WithLogger(logger Logger) *Replayer {
	r.logger = logger
	return r
}

// Replay sends the record with id to its physical topic with its original
// key, body and headers. The record is removed before the send, so a replayed
// message that fails again is stored anew by Hook; when the send fails the
// record is saved back under a new id.
func (r *Replayer) Replay(ctx context.Context, id uint) error {
	rec, err := r.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.Delete(ctx, id); err != nil {
		return err
	}

	if err := r.broker.Send(ctx, rec.Message()); err != nil {
		rec.ID = 0
		if saveErr := r.store.Save(context.WithoutCancel(ctx), rec); saveErr != nil {
			return errors.Join(err, fmt.Errorf("restoring dead letter %d: %w", id, saveErr))
		}
		return err
	}

	if r.logger != nil {
		r.logger.InfoWithContext(ctx, "replayed dead letter", nil, map[string]interface{}{
			"id":    id,
			"topic": rec.PhysicalTopic,
		})
	}
	return nil
}
