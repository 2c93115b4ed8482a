package idempotency

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("redis container skipped in short mode")
	}

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, nat.Port("6379/tcp"))
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: net.JoinHostPort(host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())

	return client
}

func TestStateTracker_Exec(t *testing.T) {
	client := newRedis(t)
	ctx := context.Background()
	tracker := New(client, "test:")

	calls := 0
	fn := func(context.Context) error {
		calls++
		return nil
	}

	require.NoError(t, tracker.Exec(ctx, "create-admin:abc", fn))
	require.ErrorIs(t, tracker.Exec(ctx, "create-admin:abc", fn), ErrAlreadyCompleted)
	require.Equal(t, 1, calls)

	val, err := client.Get(ctx, "test:create-admin:abc").Result()
	require.NoError(t, err)
	require.Equal(t, StateCompleted.String(), val)
}

func TestStateTracker_ExecFailure(t *testing.T) {
	client := newRedis(t)
	ctx := context.Background()
	tracker := New(client, "")

	errSend := errors.New("smtp down")
	err := tracker.Exec(ctx, "k1", func(context.Context) error { return errSend }, WithStateTTL(time.Minute))
	require.ErrorIs(t, err, errSend)

	err = tracker.Exec(ctx, "k1", func(context.Context) error { return nil })
	require.ErrorIs(t, err, ErrAlreadyFailed)
}

func TestStateTracker_InProgress(t *testing.T) {
	client := newRedis(t)
	ctx := context.Background()
	tracker := New(client, "")

	state, err := tracker.Acquire(ctx, "k2", time.Minute)
	require.NoError(t, err)
	require.Equal(t, StateNone, state)

	state, err = tracker.Acquire(ctx, "k2", time.Minute)
	require.NoError(t, err)
	require.Equal(t, StateInProgress, state)

	require.NoError(t, client.Set(ctx, "idempotency:k3", "bogus", time.Minute).Err())
	_, err = tracker.Acquire(ctx, "k3", time.Minute)
	require.ErrorIs(t, err, ErrInvalidState)
}
