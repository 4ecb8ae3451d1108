package audit

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStore struct {
	mu     sync.Mutex
	events []Event
}

func newRecordingStore() *recordingStore {
	return &recordingStore{}
}

func (s *recordingStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingStore) ListByAccount(context.Context, string) ([]Event, error) {
	return nil, nil
}

func (s *recordingStore) ListRecent(context.Context, int) ([]Event, error) {
	return nil, nil
}

func (s *recordingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestChannelPublisher(t *testing.T) {
	t.Run("delivers events to the inbox", func(t *testing.T) {
		pub := NewChannelPublisher(4, nil)

		require.NoError(t, pub.Emit(context.Background(), Event{Action: ActionLoginSucceeded}))

		select {
		case got := <-pub.Inbox():
			assert.Equal(t, ActionLoginSucceeded, got.Action)
			assert.False(t, got.Timestamp.IsZero(), "emit stamps the event")
		default:
			t.Fatal("expected an event in the inbox")
		}
	})

	t.Run("full inbox drops instead of blocking", func(t *testing.T) {
		pub := NewChannelPublisher(1, slog.New(slog.DiscardHandler))

		require.NoError(t, pub.Emit(context.Background(), Event{Action: "first"}))

		done := make(chan struct{})
		go func() {
			_ = pub.Emit(context.Background(), Event{Action: "second"})
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("emit must not block on a full inbox")
		}
	})
}

func TestWorker_PersistsEvents(t *testing.T) {
	store := newRecordingStore()
	pub := NewChannelPublisher(8, nil)
	worker := NewWorker(store, pub.Inbox(), slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	require.NoError(t, pub.Emit(ctx, Event{Action: ActionTransferSettled}))
	require.NoError(t, pub.Emit(ctx, Event{Action: ActionRequestResolved}))

	assert.Eventually(t, func() bool {
		return store.count() == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestTee_FansOut(t *testing.T) {
	a := NewChannelPublisher(1, nil)
	b := NewChannelPublisher(1, nil)

	require.NoError(t, Tee(a, b).Emit(context.Background(), Event{Action: "x"}))

	assert.Len(t, a.Inbox(), 1)
	assert.Len(t, b.Inbox(), 1)
}
