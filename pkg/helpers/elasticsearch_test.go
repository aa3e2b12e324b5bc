package helpers

import (
	"context"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestESIndexBreakerOpensAfterFailures(t *testing.T) {
	client, err := NewESClient([]string{"http://127.0.0.1:1"}, "", "")
	require.NoError(t, err)
	idx := NewESIndex(client, "tasks", nil)

	for i := 0; i < 4; i++ {
		_, err := idx.Search(context.Background(), map[string]any{"size": 1})
		require.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState, "attempt %d", i)
	}
	_, err = idx.Search(context.Background(), map[string]any{"size": 1})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.ErrorIs(t, idx.Put(context.Background(), "t1", map[string]any{"title": "x"}), gobreaker.ErrOpenState)
}
