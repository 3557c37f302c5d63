package collab

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func receive(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestPublishFanOut(t *testing.T) {
	hub := NewHub(4, zaptest.NewLogger(t))
	defer hub.Close()
	ctx := context.Background()

	alice, err := hub.Subscribe("doc-1", "alice")
	require.NoError(t, err)
	bob, err := hub.Subscribe("doc-1", "bob")
	require.NoError(t, err)
	other, err := hub.Subscribe("doc-2", "carol")
	require.NoError(t, err)

	joined := receive(t, alice)
	assert.Equal(t, EventUserJoined, joined.Type)
	assert.Equal(t, "bob", joined.UserID)
	assertNoEvent(t, bob)

	require.NoError(t, hub.Publish(ctx, Event{
		Type:       EventDocumentUpdated,
		DocumentID: "doc-1",
		Content:    "new text",
		Origin:     alice.ID,
	}))
	ev := receive(t, bob)
	assert.Equal(t, EventDocumentUpdated, ev.Type)
	assert.Equal(t, "new text", ev.Content)
	assert.False(t, ev.At.IsZero())
	assertNoEvent(t, alice)
	assertNoEvent(t, other)

	assert.Equal(t, 2, hub.Subscribers("doc-1"))
	assert.Equal(t, 1, hub.Subscribers("doc-2"))
}

func TestCancelNotifiesAndCloses(t *testing.T) {
	hub := NewHub(4, nil)
	defer hub.Close()

	alice, err := hub.Subscribe("doc", "alice")
	require.NoError(t, err)
	bob, err := hub.Subscribe("doc", "bob")
	require.NoError(t, err)
	receive(t, alice) // bob joined

	bob.Cancel()
	bob.Cancel()

	left := receive(t, alice)
	assert.Equal(t, EventUserLeft, left.Type)
	assert.Equal(t, "bob", left.UserID)

	_, ok := <-bob.Events()
	assert.False(t, ok)
	assert.Equal(t, 1, hub.Subscribers("doc"))

	alice.Cancel()
	assert.Equal(t, 0, hub.Subscribers("doc"))
}

func TestSlowSubscriberDropsEvents(t *testing.T) {
	hub := NewHub(1, nil)
	defer hub.Close()

	sub, err := hub.Subscribe("doc", "slow")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, hub.Publish(context.Background(), Event{Type: EventCursorMoved, DocumentID: "doc", Position: i}))
	}
	assert.Equal(t, int64(2), hub.Dropped())
	assert.Equal(t, 0, receive(t, sub).Position)
}

func TestClose(t *testing.T) {
	hub := NewHub(0, nil)
	sub, err := hub.Subscribe("doc", "u")
	require.NoError(t, err)

	hub.Close()
	hub.Close()

	_, ok := <-sub.Events()
	assert.False(t, ok)
	sub.Cancel()

	assert.ErrorIs(t, hub.Publish(context.Background(), Event{DocumentID: "doc"}), ErrClosed)
	_, err = hub.Subscribe("doc", "late")
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 0, hub.Subscribers("doc"))
}

func TestConcurrentPublish(t *testing.T) {
	hub := NewHub(64, nil)
	defer hub.Close()

	sub, err := hub.Subscribe("doc", "reader")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 8; j++ {
				_ = hub.Publish(context.Background(), Event{Type: EventDocumentUpdated, DocumentID: "doc"})
			}
		}()
	}
	wg.Wait()

	received := 0
	for len(sub.Events()) > 0 {
		<-sub.Events()
		received++
	}
	assert.Equal(t, int64(64), int64(received)+hub.Dropped())
}
