package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreBytesRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(Options{DefaultTTL: time.Minute})

	payload := []byte("ss://example")
	require.NoError(t, store.SetBytes(ctx, "https://sub.example/a", payload, 0))
	payload[0] = 'x'

	got, ok := store.GetBytes(ctx, "https://sub.example/a")
	require.True(t, ok)
	assert.Equal(t, "ss://example", string(got))

	got[0] = 'y'
	again, _ := store.GetBytes(ctx, "https://sub.example/a")
	assert.Equal(t, "ss://example", string(again))

	ttl, ok := store.TTL(ctx, "https://sub.example/a")
	require.True(t, ok)
	assert.LessOrEqual(t, ttl, time.Minute)

	store.Delete(ctx, "https://sub.example/a")
	_, ok = store.GetBytes(ctx, "https://sub.example/a")
	assert.False(t, ok)
}

func TestStoreNamespace(t *testing.T) {
	ctx := context.Background()
	root := NewStore(Options{Prefix: ":autoconvert:"})
	subs := root.Namespace("subscription")
	rules := root.Namespace("rules")

	require.NoError(t, subs.SetBytes(ctx, "k", []byte("a"), time.Minute))
	require.NoError(t, rules.SetBytes(ctx, "k", []byte("b"), time.Minute))

	got, ok := subs.GetBytes(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "a", string(got))
	got, ok = rules.GetBytes(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "b", string(got))

	assert.Equal(t, 1, subs.Len())
	assert.Equal(t, 2, root.Len())
}

func TestStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewStore(Options{DefaultTTL: time.Minute})
	require.NoError(t, store.SetBytes(ctx, "short", []byte("x"), 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)
	_, ok := store.GetBytes(ctx, "short")
	assert.False(t, ok)
}
