package kafka

import (
	"sort"

	"github.com/Aleph-Alpha/topicstream/v1/broker"
	"github.com/segmentio/kafka-go"
)

func toKafkaHeaders(headers map[string]string) []kafka.Header {
	if len(headers) == 0 {
		return nil
	}

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]kafka.Header, 0, len(keys))
	for _, k := range keys {
		out = append(out, kafka.Header{Key: k, Value: []byte(headers[k])})
	}
	return out
}

// fromKafkaMessage converts a fetched message. Repeated header keys keep the
// last value.
func fromKafkaMessage(m kafka.Message) *broker.Message {
	headers := make(map[string]string, len(m.Headers))
	for _, h := range m.Headers {
		headers[h.Key] = string(h.Value)
	}

	return &broker.Message{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       m.Key,
		Body:      m.Value,
		Headers:   headers,
		Timestamp: m.Time,
	}
}
