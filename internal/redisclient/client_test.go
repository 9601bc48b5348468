package redisclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	t.Skip("Integration test - requires redis")

	client, err := NewClient("localhost:6379", "", 1)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestMirrorReserveReportsHeadroom(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.InitInventory(ctx, "inv-1", 5, 4))

	// Not enough headroom: the script refuses and reports it.
	applied, err := client.MirrorReserve(ctx, "inv-1", 2)
	require.NoError(t, err)
	assert.False(t, applied)

	quantity, reserved, err := client.GetInventory(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, 5, quantity)
	assert.Equal(t, 4, reserved)

	applied, err = client.MirrorReserve(ctx, "inv-1", 1)
	require.NoError(t, err)
	assert.True(t, applied)

	_, reserved, err = client.GetInventory(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, 5, reserved)
}

func TestMirrorConsumeClampsAtZero(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.InitInventory(ctx, "inv-2", 1, 1))
	require.NoError(t, client.MirrorConsume(ctx, "inv-2", 3))

	quantity, reserved, err := client.GetInventory(ctx, "inv-2")
	require.NoError(t, err)
	assert.Equal(t, 0, quantity)
	assert.Equal(t, 0, reserved)
}
