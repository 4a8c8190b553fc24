package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), mr.Addr(), true)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	mr.CheckGet(t, "k", "v")
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClient(context.Background(), addr, true)
	assert.Error(t, err)

	client, err := NewRedisClient(context.Background(), addr, false)
	require.NoError(t, err, "without a check the client is lazy")
	_ = client.Close()
}

func TestNewConnectors_RejectEmptyTargets(t *testing.T) {
	ctx := context.Background()

	_, err := NewRedisClient(ctx, "", false)
	assert.Error(t, err)
	_, err = NewPgxPool(ctx, "", false)
	assert.Error(t, err)
	_, err = NewMongoClient(ctx, "", false)
	assert.Error(t, err)
}
