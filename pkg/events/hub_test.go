package events

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audio-ingest/dto"
)

func TestHubBroadcastReachesAllSubscribers(t *testing.T) {
	hub := NewHub()
	a, cancelA := hub.Subscribe()
	defer cancelA()
	b, cancelB := hub.Subscribe()
	defer cancelB()

	event := dto.ChangeEvent{Op: dto.ChangeOpInsert, RecordingID: uuid.New(), At: time.Now()}
	hub.Broadcast(event)

	require.Equal(t, event, <-a)
	require.Equal(t, event, <-b)
}

func TestHubCancelClosesChannel(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe()
	cancel()

	_, open := <-ch
	assert.False(t, open)

	// A second cancel is harmless.
	cancel()

	// Broadcasting after cancel must not panic or deliver.
	hub.Broadcast(dto.ChangeEvent{Op: dto.ChangeOpDelete, RecordingID: uuid.New()})
}

func TestHubSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*2; i++ {
			hub.Broadcast(dto.ChangeEvent{Op: dto.ChangeOpUpdate, RecordingID: uuid.New()})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a slow subscriber")
	}

	assert.Len(t, ch, subscriberBuffer)
}
