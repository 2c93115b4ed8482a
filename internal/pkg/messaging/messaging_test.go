package messaging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewFromDriver(t *testing.T) {
	ctx := context.Background()

	p, err := NewFromDriver(ctx, "", FactoryOptions{})
	require.NoError(t, err)
	require.IsType(t, &Memory{}, p)

	_, err = NewFromDriver(ctx, "rabbitmq", FactoryOptions{})
	require.ErrorIs(t, err, ErrUnknownDriver)

	_, err = NewFromDriver(ctx, DriverKafka, FactoryOptions{})
	require.ErrorIs(t, err, ErrKafkaBrokersRequired)

	_, err = NewFromDriver(ctx, DriverNATS, FactoryOptions{})
	require.ErrorIs(t, err, ErrNATSURLRequired)

	_, err = NewFromDriver(ctx, DriverNSQ, FactoryOptions{})
	require.ErrorIs(t, err, ErrNSQProducerAddrRequired)

	_, err = NewFromDriver(ctx, DriverGooglePubSub, FactoryOptions{})
	require.ErrorIs(t, err, ErrPubSubProjectIDRequired)
}

func TestMemory_Publish(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Publish(ctx, "", Message{})
	require.ErrorIs(t, err, ErrTopicRequired)

	res, err := m.Publish(ctx, "identity.principal.verified", Message{Key: []byte("1"), Body: []byte(`{}`)})
	require.NoError(t, err)
	require.Equal(t, "1", res.MessageID)

	msgs := m.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "identity.principal.verified", msgs[0].Topic)

	require.NoError(t, m.Close())
	_, err = m.Publish(ctx, "identity.principal.verified", Message{})
	require.ErrorIs(t, err, ErrClosed)
}

func TestKafka_PublishAfterClose(t *testing.T) {
	k, err := NewKafka(KafkaConfig{Brokers: []string{"127.0.0.1:9092"}})
	require.NoError(t, err)
	require.NoError(t, k.Close())

	_, err = k.Publish(context.Background(), "t", Message{Body: []byte("x")})
	require.ErrorIs(t, err, ErrClosed)
}
