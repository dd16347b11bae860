package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Aleph-Alpha/topicstream/v1/broker"
	"github.com/Aleph-Alpha/topicstream/v1/observability"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *stubWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *stubWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

type stubReader struct {
	msgs chan kafka.Message

	mu        sync.Mutex
	committed []int64
	closed    bool
}

func newStubReader(msgs ...kafka.Message) *stubReader {
	r := &stubReader{msgs: make(chan kafka.Message, len(msgs))}
	for _, m := range msgs {
		r.msgs <- m
	}
	return r
}

func (r *stubReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *stubReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *stubReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *stubReader) Committed() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

type recordingObserver struct {
	mu  sync.Mutex
	ops []observability.OperationContext
}

func (o *recordingObserver) ObserveOperation(ctx observability.OperationContext) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ops = append(o.ops, ctx)
}

func (o *recordingObserver) operations() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.ops))
	for _, op := range o.ops {
		out = append(out, op.Operation)
	}
	return out
}

func newTestClient(t *testing.T, cfg Config, reader *stubReader) (*KafkaClient, *stubWriter) {
	t.Helper()

	cfg.Brokers = []string{"localhost:9092"}
	client, err := NewClient(cfg)
	require.NoError(t, err)

	writer := &stubWriter{}
	client.writer = writer
	client.newReader = func(string) messageReader { return reader }
	return client, writer
}

func testMessages(topic string, n int) []kafka.Message {
	msgs := make([]kafka.Message, n)
	for i := range msgs {
		msgs[i] = kafka.Message{
			Topic:   topic,
			Offset:  int64(i),
			Key:     []byte("k"),
			Value:   []byte{byte(i)},
			Headers: []kafka.Header{{Key: "message-id", Value: []byte("m")}},
			Time:    time.Unix(1700000000, 0),
		}
	}
	return msgs
}

func TestNewClientRequiresBrokers(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestSend(t *testing.T) {
	client, writer := newTestClient(t, Config{}, nil)

	err := client.Send(context.Background(), broker.OutboundMessage{
		Topic:   "production.orders",
		Key:     []byte("o-1"),
		Body:    []byte("body"),
		Headers: map[string]string{"b": "2", "a": "1"},
	})
	require.NoError(t, err)

	require.Len(t, writer.msgs, 1)
	m := writer.msgs[0]
	assert.Equal(t, "production.orders", m.Topic)
	assert.Equal(t, []byte("o-1"), m.Key)
	assert.Equal(t, []kafka.Header{{Key: "a", Value: []byte("1")}, {Key: "b", Value: []byte("2")}}, m.Headers)
}

func TestSendWrapsFailure(t *testing.T) {
	client, writer := newTestClient(t, Config{}, nil)
	cause := errors.New("leader not available")
	writer.err = cause

	err := client.Send(context.Background(), broker.OutboundMessage{Topic: "t"})
	assert.True(t, IsSendError(err))
	assert.ErrorIs(t, err, cause)
}

func TestSubscribeSkipsFailedMessages(t *testing.T) {
	reader := newStubReader(testMessages("orders", 3)...)
	client, _ := newTestClient(t, Config{GroupID: "g"}, reader)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var seen []int64
	err := client.Subscribe(ctx, "orders", func(ctx context.Context, msg *broker.Message, acker broker.Acker) error {
		seen = append(seen, msg.Offset)
		assert.Equal(t, "m", msg.Headers["message-id"])

		switch msg.Offset {
		case 0:
			return errors.New("handler failed")
		case 2:
			cancel()
			return nil
		}
		return acker.Ack(ctx)
	})

	require.NoError(t, err)
	// Offset 0 is not fetched again, and committing offset 1 moves the
	// group past it.
	assert.Equal(t, []int64{0, 1, 2}, seen)
	assert.Equal(t, []int64{1}, reader.Committed())
	assert.True(t, reader.closed)
}

func TestSubscribeAutoCommit(t *testing.T) {
	reader := newStubReader(testMessages("orders", 2)...)
	client, _ := newTestClient(t, Config{GroupID: "g", EnableAutoCommit: true}, reader)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := client.Subscribe(ctx, "orders", func(ctx context.Context, msg *broker.Message, acker broker.Acker) error {
		if msg.Offset == 1 {
			cancel()
			return errors.New("not committed")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int64{0}, reader.Committed())
}

func TestAckIsCommittedOnce(t *testing.T) {
	reader := newStubReader(testMessages("orders", 1)...)
	client, _ := newTestClient(t, Config{GroupID: "g", EnableAutoCommit: true}, reader)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := client.Subscribe(ctx, "orders", func(ctx context.Context, msg *broker.Message, acker broker.Acker) error {
		defer cancel()
		return acker.Ack(ctx)
	})

	require.NoError(t, err)
	assert.Equal(t, []int64{0}, reader.Committed())
}

func TestSubscribeWithoutGroupDoesNotCommit(t *testing.T) {
	reader := newStubReader(testMessages("orders", 1)...)
	client, _ := newTestClient(t, Config{}, reader)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := client.Subscribe(ctx, "orders", func(ctx context.Context, msg *broker.Message, acker broker.Acker) error {
		cancel()
		return acker.Ack(ctx)
	})

	require.NoError(t, err)
	assert.Empty(t, reader.Committed())
}

func TestGracefulShutdownStopsSubscriptions(t *testing.T) {
	reader := newStubReader()
	client, writer := newTestClient(t, Config{GroupID: "g"}, reader)

	opened := make(chan struct{})
	client.newReader = func(string) messageReader {
		close(opened)
		return reader
	}

	done := make(chan error, 1)
	go func() {
		done <- client.Subscribe(context.Background(), "orders", func(context.Context, *broker.Message, broker.Acker) error {
			return nil
		})
	}()

	<-opened
	require.NoError(t, client.GracefulShutdown())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not stop")
	}

	assert.True(t, writer.closed)
	assert.True(t, IsClientClosedError(client.Send(context.Background(), broker.OutboundMessage{Topic: "t"})))
	assert.ErrorIs(t, client.Subscribe(context.Background(), "t", nil), ErrClientClosed)
	assert.NoError(t, client.GracefulShutdown())
}

func TestObserverSeesProduceConsumeCommit(t *testing.T) {
	reader := newStubReader(testMessages("orders", 1)...)
	client, _ := newTestClient(t, Config{GroupID: "g"}, reader)
	obs := &recordingObserver{}
	client.WithObserver(obs)

	require.NoError(t, client.Send(context.Background(), broker.OutboundMessage{Topic: "orders"}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, client.Subscribe(ctx, "orders", func(ctx context.Context, _ *broker.Message, acker broker.Acker) error {
		defer cancel()
		return acker.Ack(ctx)
	}))

	assert.Equal(t, []string{"produce", "commit", "consume"}, obs.operations())
}

func TestCreateSASLMechanism(t *testing.T) {
	for _, name := range []string{"PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512"} {
		m, err := createSASLMechanism(SASLConfig{Mechanism: name, Username: "u", Password: "p"})
		require.NoError(t, err, name)
		assert.Equal(t, name, m.Name())
	}

	_, err := createSASLMechanism(SASLConfig{Mechanism: "GSSAPI"})
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("KAFKA_GROUP_ID", "orders-service")
	t.Setenv("KAFKA_ENABLE_AUTO_COMMIT", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Brokers)
	assert.Equal(t, "orders-service", cfg.GroupID)
	assert.True(t, cfg.EnableAutoCommit)
}
