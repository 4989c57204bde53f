package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuarded_PassesThrough(t *testing.T) {
	next := &countingService{}
	g := NewGuarded(next, GuardConfig{})

	vectors, err := g.Embed(context.Background(), []string{"hello"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{5, 'h'}}, vectors)
	assert.Equal(t, "counting", g.Model())
}

func TestGuarded_OpensAfterFailures(t *testing.T) {
	next := &countingService{err: errors.New("401 unauthorized")}
	g := NewGuarded(next, GuardConfig{ConsecutiveFailures: 2, OpenTimeout: time.Hour})

	for i := 0; i < 2; i++ {
		_, err := g.Embed(context.Background(), []string{"x"})
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, g.State())

	next.err = nil
	_, err := g.Embed(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.ErrorIs(t, err, ErrEmbedding)
	assert.Empty(t, next.seen)
}

func TestGuarded_CancellationDoesNotTrip(t *testing.T) {
	next := &countingService{err: context.Canceled}
	g := NewGuarded(next, GuardConfig{ConsecutiveFailures: 1})

	_, err := g.Embed(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, gobreaker.StateClosed, g.State())
}

func TestGuarded_RateLimitHonoursContext(t *testing.T) {
	g := NewGuarded(&countingService{}, GuardConfig{RequestsPerSecond: 0.001, Burst: 1})

	_, err := g.Embed(context.Background(), []string{"first"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = g.Embed(ctx, []string{"second"})
	assert.ErrorIs(t, err, ErrEmbedding)
}
