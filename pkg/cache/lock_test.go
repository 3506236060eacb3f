package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lockClientStub struct {
	held     map[string]string
	released []string
	err      error
}

func (s *lockClientStub) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) *redis.BoolCmd {
	if s.err != nil {
		return redis.NewBoolResult(false, s.err)
	}
	if _, ok := s.held[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	s.held[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (s *lockClientStub) Eval(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	if s.held[keys[0]] == args[0] {
		delete(s.held, keys[0])
		s.released = append(s.released, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func TestLockerAcquireRelease(t *testing.T) {
	stub := &lockClientStub{held: map[string]string{}}
	locker := NewLocker(stub)
	ctx := context.Background()

	lease, err := locker.Acquire(ctx, "risk:lock:s1", time.Minute)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "risk:lock:s1", time.Minute)
	assert.ErrorIs(t, err, ErrLockHeld)

	require.NoError(t, lease.Release(ctx))
	assert.Equal(t, []string{"risk:lock:s1"}, stub.released)

	_, err = locker.Acquire(ctx, "risk:lock:s1", time.Minute)
	require.NoError(t, err)
}

func TestLockerPropagatesRedisError(t *testing.T) {
	locker := NewLocker(&lockClientStub{held: map[string]string{}, err: errors.New("down")})
	_, err := locker.Acquire(context.Background(), "k", time.Second)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLockHeld)
}
