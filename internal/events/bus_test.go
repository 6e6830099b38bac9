package events

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishAssignsMonotonicSequence(t *testing.T) {
	b := NewBus(10, 10)
	e1 := b.Publish(Event{Type: KindQueued, JobID: uuid.New(), Category: CategoryUser})
	e2 := b.Publish(Event{Type: KindStarted, JobID: uuid.New(), Category: CategoryUser})
	assert.Equal(t, uint64(1), e1.Sequence)
	assert.Equal(t, uint64(2), e2.Sequence)
}

func TestSubscribeDeliversMatchingCategoryOnly(t *testing.T) {
	b := NewBus(10, 10)
	_, ch, _ := b.Subscribe(CategoryAdmin)

	b.Publish(Event{Type: KindQueued, JobID: uuid.New(), Category: CategoryUser})
	b.Publish(Event{Type: KindStarted, JobID: uuid.New(), Category: CategoryAdmin})

	got := <-ch
	assert.Equal(t, KindStarted, got.Type)
	select {
	case e := <-ch:
		t.Fatalf("unexpected delivery of non-matching category: %+v", e)
	default:
	}
}

func TestSubscribeCategoryAllSeesEverything(t *testing.T) {
	b := NewBus(10, 10)
	_, ch, _ := b.Subscribe(CategoryAll)

	b.Publish(Event{Type: KindQueued, JobID: uuid.New(), Category: CategoryUser})
	b.Publish(Event{Type: KindStarted, JobID: uuid.New(), Category: CategoryAdmin})

	assert.Equal(t, KindQueued, (<-ch).Type)
	assert.Equal(t, KindStarted, (<-ch).Type)
}

func TestSubscribeReplaysRecentMatchingEvents(t *testing.T) {
	b := NewBus(10, 10)
	jobID := uuid.New()
	b.Publish(Event{Type: KindQueued, JobID: jobID, Category: CategoryUser})
	b.Publish(Event{Type: KindStarted, JobID: jobID, Category: CategoryUser})
	b.Publish(Event{Type: KindProgress, JobID: jobID, Category: CategoryAdmin})

	_, _, replay := b.Subscribe(CategoryUser)
	require.Len(t, replay, 2)
	assert.Equal(t, KindQueued, replay[0].Type)
	assert.Equal(t, KindStarted, replay[1].Type)
}

func TestReplayRingWrapsAtCapacity(t *testing.T) {
	b := NewBus(3, 10)
	jobID := uuid.New()
	for i := 0; i < 5; i++ {
		b.Publish(Event{Type: KindProgress, JobID: jobID, Category: CategoryAll, Step: string(rune('a' + i))})
	}

	replay := b.Snapshot()
	require.Len(t, replay, 3)
	assert.Equal(t, "c", replay[0].Step)
	assert.Equal(t, "d", replay[1].Step)
	assert.Equal(t, "e", replay[2].Step)
}

func TestUnsubscribeClosesChannelAndStopsDelivery(t *testing.T) {
	b := NewBus(10, 10)
	id, ch, _ := b.Subscribe(CategoryAll)
	b.Unsubscribe(id)

	_, open := <-ch
	assert.False(t, open, "channel must be closed after Unsubscribe")

	// Publishing after Unsubscribe must not panic or deadlock.
	b.Publish(Event{Type: KindQueued, JobID: uuid.New(), Category: CategoryAll})
}

func TestPublishDropsEventForSlowSubscriberInsteadOfBlocking(t *testing.T) {
	b := NewBus(10, 1)
	_, ch, _ := b.Subscribe(CategoryAll)

	// Fill the one-slot buffer, then publish again without draining;
	// Publish must not block.
	b.Publish(Event{Type: KindQueued, JobID: uuid.New(), Category: CategoryAll})
	done := make(chan struct{})
	go func() {
		b.Publish(Event{Type: KindStarted, JobID: uuid.New(), Category: CategoryAll})
		close(done)
	}()
	<-done

	first := <-ch
	assert.Equal(t, KindQueued, first.Type)
	select {
	case e := <-ch:
		t.Fatalf("second event should have been dropped, got %+v", e)
	default:
	}
}
