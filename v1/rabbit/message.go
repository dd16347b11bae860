package rabbit

import (
	"fmt"

	"github.com/Aleph-Alpha/topicstream/v1/broker"
	amqp "github.com/rabbitmq/amqp091-go"
)

// toTable converts outbound headers to an AMQP table and adds the key.
func toTable(key []byte, headers map[string]string) amqp.Table {
	table := make(amqp.Table, len(headers)+1)
	for k, v := range headers {
		table[k] = v
	}
	if len(key) > 0 {
		table[KeyHeader] = string(key)
	}
	return table
}

// fromDelivery converts an AMQP delivery to a broker message. The routing key
// is the physical topic and the delivery tag stands in for the offset.
func fromDelivery(d amqp.Delivery) *broker.Message {
	msg := &broker.Message{
		Topic:     d.RoutingKey,
		Offset:    int64(d.DeliveryTag),
		Body:      d.Body,
		Headers:   make(map[string]string, len(d.Headers)),
		Timestamp: d.Timestamp,
	}
	for k, v := range d.Headers {
		if k == KeyHeader {
			msg.Key = []byte(headerString(v))
			continue
		}
		msg.Headers[k] = headerString(v)
	}
	return msg
}

func headerString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}
