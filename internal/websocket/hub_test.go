package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func receive(t *testing.T, c *Client) *Message {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestHub_BroadcastReachesOnlyMatchingExecution(t *testing.T) {
	hub, _ := startHub(t)

	a := NewClient(hub, nil, "exec-a")
	b := NewClient(hub, nil, "exec-b")
	require.True(t, hub.Register(a))
	require.True(t, hub.Register(b))

	hub.Broadcast("exec-a", EventStepStart, map[string]interface{}{"stepNumber": 1})

	msg := receive(t, a)
	assert.Equal(t, "exec-a", msg.ExecutionID)
	assert.Equal(t, EventStepStart, msg.Type)

	select {
	case msg := <-b.send:
		t.Fatalf("unexpected message for exec-b: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub, _ := startHub(t)

	c := NewClient(hub, nil, "exec-1")
	require.True(t, hub.Register(c))
	assert.Eventually(t, func() bool { return hub.Subscribers("exec-1") == 1 }, time.Second, 5*time.Millisecond)

	hub.Unregister(c)

	select {
	case _, ok := <-c.send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
	assert.Equal(t, 0, hub.Subscribers("exec-1"))
}

func TestHub_StopReleasesCallers(t *testing.T) {
	hub, cancel := startHub(t)

	c := NewClient(hub, nil, "exec-1")
	require.True(t, hub.Register(c))
	cancel()

	select {
	case _, ok := <-c.send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed on stop")
	}

	assert.False(t, hub.Register(NewClient(hub, nil, "exec-2")))
	hub.Broadcast("exec-1", EventStepLog, nil)
	hub.Unregister(c)
}

func TestClient_EnqueueBeforeRegister(t *testing.T) {
	hub, _ := startHub(t)

	c := NewClient(hub, nil, "exec-1")
	require.True(t, c.Enqueue(&Message{ExecutionID: "exec-1", Type: EventSnapshot}))
	require.True(t, hub.Register(c))
	hub.Broadcast("exec-1", EventExecutionStart, nil)

	assert.Equal(t, EventSnapshot, receive(t, c).Type)
	assert.Equal(t, EventExecutionStart, receive(t, c).Type)
}
