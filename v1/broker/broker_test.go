package broker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestCloneHeaders(t *testing.T) {
	src := map[string]string{"a": "1"}
	dst := CloneHeaders(src)
	dst["b"] = "2"

	assert.Len(t, src, 1)
	assert.Equal(t, "1", dst["a"])
	assert.NotNil(t, CloneHeaders(nil))
}

func TestAckerFunc(t *testing.T) {
	called := false
	acker := AckerFunc(func(context.Context) error {
		called = true
		return errors.New("nope")
	})

	require.Error(t, acker.Ack(context.Background()))
	assert.True(t, called)
	assert.NoError(t, NoopAcker.Ack(context.Background()))
}

func TestMockBrokerSatisfiesInterface(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := NewMockBroker(ctrl)

	var b Broker = m
	m.EXPECT().Send(gomock.Any(), OutboundMessage{Topic: "t"}).Return(nil)

	require.NoError(t, b.Send(context.Background(), OutboundMessage{Topic: "t"}))
}
