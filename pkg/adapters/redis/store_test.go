package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/reflex/pkg/adapters/redis"
	"github.com/aretw0/reflex/pkg/domain"
	"github.com/aretw0/reflex/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemory(t *testing.T, opts ...redis.Option) (*redis.Memory, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	return redis.NewFromClient(client, opts...), mr
}

func TestRedisMemory_Contract(t *testing.T) {
	mem, _ := newMemory(t)
	ports.RunMemoryContract(t, mem)
}

func TestRedisMemory_Prefix(t *testing.T) {
	mem, mr := newMemory(t, redis.WithPrefix("robot1:"))
	ctx := context.Background()

	require.NoError(t, mem.SetStateParam(ctx, "mood", domain.String("happy")))

	assert.True(t, mr.Exists("robot1:current"))
	assert.True(t, mr.Exists("robot1:history:mood"))
	assert.Equal(t, `"happy"`, mr.HGet("robot1:current", "mood"))
}

func TestRedisMemory_TTL_Expiration(t *testing.T) {
	mem, mr := newMemory(t, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	require.NoError(t, mem.SetStateParam(ctx, "k", domain.String("v")))
	_, ok, err := mem.GetStateParam(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Second)

	_, ok, err = mem.GetStateParam(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "value should expire")

	_, ok, err = mem.GetStateParamHistory(ctx, "k", domain.Window{})
	require.NoError(t, err)
	assert.False(t, ok, "history should expire")
}

func TestRedisMemory_TransportError(t *testing.T) {
	mem, mr := newMemory(t)
	mr.Close()

	err := mem.SetStateParam(context.Background(), "k", domain.String("v"))
	assert.Error(t, err)

	_, _, err = mem.GetStateParam(context.Background(), "k")
	assert.Error(t, err)
}

func TestRedisMemory_CorruptValue(t *testing.T) {
	mem, mr := newMemory(t)
	mr.HSet("reflex:memory:current", "bad", "{not json")

	_, _, err := mem.GetStateParam(context.Background(), "bad")
	assert.Error(t, err)
}
