package deadletter

import (
	"time"

	"github.com/Aleph-Alpha/topicstream/v1/broker"
	"github.com/Aleph-Alpha/topicstream/v1/pipeline"
	"github.com/Aleph-Alpha/topicstream/v1/schema_registry"
	"github.com/Aleph-Alpha/topicstream/v1/topic"
)

// Record is a message that failed decoding or handling, kept for inspection
// and replay.
type Record struct {
	ID uint `gorm:"primaryKey"`

	// Topic is the logical topic name.
	Topic string `gorm:"index;not null"`

	// PhysicalTopic is where the message was read from and where Replay
	// sends it back to.
	PhysicalTopic string `gorm:"not null"`

	Partition int
	Offset    int64
	Key       []byte
	Body      []byte
	Headers   map[string]string `gorm:"serializer:json"`

	// MessageID is the producer's message-id header, used to recognise
	// redeliveries of a message that is already stored.
	MessageID string `gorm:"index"`

	// SchemaID is read from the body's envelope; zero when the body is not
	// framed.
	SchemaID uint32

	Error    string    `gorm:"type:text"`
	FailedAt time.Time `gorm:"index"`
}

// TableName implements gorm's tabler.
func (Record) TableName() string {
	return "dead_letters"
}

// NewRecord builds the record of msg failing on t with err.
func NewRecord(t *topic.Topic, msg *broker.Message, err error, failedAt time.Time) Record {
	r := Record{
		PhysicalTopic: msg.Topic,
		Partition:     msg.Partition,
		Offset:        msg.Offset,
		Key:           msg.Key,
		Body:          msg.Body,
		Headers:       broker.CloneHeaders(msg.Headers),
		MessageID:     msg.Headers[pipeline.MessageIDHeader],
		FailedAt:      failedAt.UTC(),
	}
	if t != nil {
		r.Topic = t.Name
	}
	if err != nil {
		r.Error = err.Error()
	}
	if id, _, decodeErr := schema_registry.DecodeEnvelope(msg.Body); decodeErr == nil {
		r.SchemaID = id
	}
	return r
}

// Message returns the record as a message for its physical topic.
func (r Record) Message() broker.OutboundMessage {
	return broker.OutboundMessage{
		Topic:   r.PhysicalTopic,
		Key:     r.Key,
		Body:    r.Body,
		Headers: broker.CloneHeaders(r.Headers),
	}
}
