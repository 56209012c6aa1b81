package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectWithoutAddrDisablesCache(t *testing.T) {
	assert.Nil(t, Connect(context.Background(), "", "", 0))

	c := NewRedisCache(nil, "reports:", time.Minute)
	_, ok := c.(Noop)
	assert.True(t, ok)
}

func TestNoopNeverHits(t *testing.T) {
	var c Cache = Noop{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", map[string]int{"a": 1}))
	var dest map[string]int
	hit, err := c.Get(ctx, "k", &dest)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, c.DeletePrefix(ctx, "k"))
}
