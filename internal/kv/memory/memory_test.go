package memory

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func TestGetSet_Expiry(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	b := New(WithClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "k", "v", time.Minute))
	v, ok, err := b.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", v)

	clock.t = clock.t.Add(time.Minute)
	_, ok, err = b.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSet_ZeroTTLNeverExpires(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	b := New(WithClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "k", "v", 0))
	clock.t = clock.t.Add(365 * 24 * time.Hour)
	_, ok, err := b.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestPushTrim_BoundsAndOrder(t *testing.T) {
	b := New()
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		require.NoError(t, b.PushTrim(ctx, "l", strconv.Itoa(i), 5, time.Hour))
	}
	got, err := b.Range(ctx, "l", 10)
	require.NoError(t, err)
	require.Equal(t, []string{"6", "5", "4", "3", "2"}, got)

	got, err = b.Range(ctx, "l", 2)
	require.NoError(t, err)
	require.Equal(t, []string{"6", "5"}, got)
}

func TestPushTrim_ResetsTTL(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	b := New(WithClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, b.PushTrim(ctx, "l", "a", 5, time.Hour))
	clock.t = clock.t.Add(50 * time.Minute)
	require.NoError(t, b.PushTrim(ctx, "l", "b", 5, time.Hour))
	clock.t = clock.t.Add(50 * time.Minute)

	got, err := b.Range(ctx, "l", 10)
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a"}, got)
}

func TestWrongType(t *testing.T) {
	b := New()
	ctx := context.Background()
	require.NoError(t, b.Set(ctx, "k", "v", 0))
	require.ErrorIs(t, b.PushTrim(ctx, "k", "x", 5, 0), ErrWrongType)

	require.NoError(t, b.PushTrim(ctx, "l", "x", 5, 0))
	_, _, err := b.Get(ctx, "l")
	require.ErrorIs(t, err, ErrWrongType)
}

func TestUpdate(t *testing.T) {
	b := New()
	ctx := context.Background()

	require.NoError(t, b.Update(ctx, "k", time.Hour, func(cur string, found bool) (string, error) {
		require.False(t, found)
		return "1", nil
	}))
	require.NoError(t, b.Update(ctx, "k", time.Hour, func(cur string, found bool) (string, error) {
		require.True(t, found)
		return cur + "2", nil
	}))
	v, _, err := b.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "12", v)

	boom := errors.New("boom")
	require.ErrorIs(t, b.Update(ctx, "k", time.Hour, func(string, bool) (string, error) { return "", boom }), boom)
	v, _, err = b.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "12", v)
}

func TestClose(t *testing.T) {
	b := New()
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	_, _, err := b.Get(context.Background(), "k")
	require.ErrorIs(t, err, ErrClosed)
}
