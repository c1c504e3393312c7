package cached

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
	err   error
}

func (c *countingEmbedder) Name() string   { return "counting" }
func (c *countingEmbedder) Dimension() int { return 2 }
func (c *countingEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []float64{float64(len(text)), 1}, nil
}

func TestCacheHit(t *testing.T) {
	next := &countingEmbedder{}
	e, err := New(next, 2)
	require.NoError(t, err)
	assert.Equal(t, "counting", e.Name())
	assert.Equal(t, 2, e.Dimension())

	ctx := context.Background()
	a, err := e.Embed(ctx, "abc")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, 1, next.calls)

	_, _ = e.Embed(ctx, "d")
	_, _ = e.Embed(ctx, "ef")
	assert.Equal(t, 2, e.Len())
	_, _ = e.Embed(ctx, "abc")
	assert.Equal(t, 4, next.calls, "evicted entry is recomputed")
}

func TestCacheSkipsErrors(t *testing.T) {
	next := &countingEmbedder{err: errors.New("backend down")}
	e, err := New(next, 4)
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "x")
	assert.Error(t, err)
	assert.Equal(t, 0, e.Len())
}

func TestNewRejectsBadSize(t *testing.T) {
	_, err := New(&countingEmbedder{}, 0)
	assert.Error(t, err)
}
