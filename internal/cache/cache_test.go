package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func withMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)

	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() {
		SetClient(nil)
		mr.Close()
	})
	return mr
}

func TestGetSetJSONRoundTrip(t *testing.T) {
	withMiniredis(t)
	ctx := context.Background()

	in := payload{Name: "first", Count: 3}
	require.NoError(t, SetJSON(ctx, "k", in, time.Minute))

	var out payload
	found, err := GetJSON(ctx, "k", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)
}

func TestGetJSONMiss(t *testing.T) {
	withMiniredis(t)

	var out payload
	found, err := GetJSON(context.Background(), "missing", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAsideFetchesOnceThenServesFromCache(t *testing.T) {
	withMiniredis(t)
	ctx := context.Background()

	fetches := 0
	fetch := func(dest *payload) func() error {
		return func() error {
			fetches++
			dest.Name = "fetched"
			dest.Count = fetches
			return nil
		}
	}

	var first payload
	require.NoError(t, Aside(ctx, "user:1", &first, time.Minute, fetch(&first)))
	assert.Equal(t, 1, fetches)
	assert.Equal(t, 1, first.Count)

	var second payload
	require.NoError(t, Aside(ctx, "user:1", &second, time.Minute, fetch(&second)))
	assert.Equal(t, 1, fetches, "second read must hit the cache")
	assert.Equal(t, first, second)
}

func TestAsideExpiry(t *testing.T) {
	mr := withMiniredis(t)
	ctx := context.Background()

	fetches := 0
	run := func() {
		var out payload
		err := Aside(ctx, "feed:first", &out, time.Minute, func() error {
			fetches++
			out.Name = "page"
			return nil
		})
		require.NoError(t, err)
	}

	run()
	mr.FastForward(2 * time.Minute)
	run()
	assert.Equal(t, 2, fetches)
}

func TestInvalidateDropsKey(t *testing.T) {
	withMiniredis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, UserKey(7), payload{Name: "x"}, time.Minute))
	InvalidateUser(ctx, 7)

	var out payload
	found, err := GetJSON(ctx, UserKey(7), &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDegradedModeWithoutClient(t *testing.T) {
	SetClient(nil)
	ctx := context.Background()

	var out payload
	found, err := GetJSON(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SetJSON(ctx, "k", payload{}, time.Minute))

	fetched := false
	require.NoError(t, Aside(ctx, "k", &out, time.Minute, func() error {
		fetched = true
		out.Name = "direct"
		return nil
	}))
	assert.True(t, fetched)
	assert.Equal(t, "direct", out.Name)

	// Invalidation is a no-op, not a panic.
	InvalidateFeed(ctx)
	InvalidateProfile(ctx, "someone")
}
