package redisstate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type delivered struct {
	roomCode    string
	excludeConn string
	frame       string
}

func TestRelay_DeliversOnlyForeignFrames(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()

	nodeA := NewRelay(client, "test:", "node-a")
	nodeB := NewRelay(client, "test:", "node-b")

	gotA := make(chan delivered, 4)
	gotB := make(chan delivered, 4)
	require.NoError(t, nodeA.Start(ctx, func(room, exclude string, frame []byte) {
		gotA <- delivered{room, exclude, string(frame)}
	}))
	require.NoError(t, nodeB.Start(ctx, func(room, exclude string, frame []byte) {
		gotB <- delivered{room, exclude, string(frame)}
	}))
	t.Cleanup(func() {
		_ = nodeA.Close()
		_ = nodeB.Close()
	})

	require.NoError(t, nodeA.Publish(ctx, "AB12CD", "conn-1", []byte(`{"event":"chat:message"}`)))

	select {
	case d := <-gotB:
		assert.Equal(t, "AB12CD", d.roomCode)
		assert.Equal(t, "conn-1", d.excludeConn)
		assert.JSONEq(t, `{"event":"chat:message"}`, d.frame)
	case <-time.After(2 * time.Second):
		t.Fatal("node-b did not receive the fanout frame")
	}

	// 发布者自己不会收到回环消息
	select {
	case d := <-gotA:
		t.Fatalf("node-a received its own frame: %+v", d)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRelay_CloseWithoutStart(t *testing.T) {
	_, client := newTestRedis(t)
	relay := NewRelay(client, "", "solo")
	assert.NoError(t, relay.Close())
	assert.Equal(t, "solo", relay.NodeID())
}
