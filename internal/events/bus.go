package events

import (
	"sync"

	"github.com/google/uuid"
)

// DefaultSubscriberBuffer bounds each subscriber's channel; a publish that
// would block on a full channel is dropped for that subscriber instead
// (spec §9: "slow subscribers drop their slot — never block the
// producer").
const DefaultSubscriberBuffer = 64

// DefaultReplayDepth is how many recent events a late joiner replays
// (spec §7: "they may replay the last N events").
const DefaultReplayDepth = 200

type subscription struct {
	id       int
	category Category
	ch       chan Event
}

// Bus is the process-wide broadcaster. Zero value is not usable; use
// NewBus.
type Bus struct {
	mu       sync.Mutex
	seq      uint64
	subs     map[int]*subscription
	nextID   int
	ring     []Event
	ringNext int
	ringFull bool
	ringCap  int
	subBuf   int
}

// NewBus creates a Bus with the given replay ring depth and per-subscriber
// channel buffer size.
func NewBus(ringCap, subscriberBuffer int) *Bus {
	if ringCap <= 0 {
		ringCap = DefaultReplayDepth
	}
	if subscriberBuffer <= 0 {
		subscriberBuffer = DefaultSubscriberBuffer
	}
	return &Bus{
		subs:    make(map[int]*subscription),
		ring:    make([]Event, ringCap),
		ringCap: ringCap,
		subBuf:  subscriberBuffer,
	}
}

// Publish assigns the next sequence number, records e in the replay ring,
// and fans it out to every subscriber whose category filter matches. A
// subscriber whose channel is full has this event dropped for them; it
// never blocks Publish.
func (b *Bus) Publish(e Event) Event {
	b.mu.Lock()
	b.seq++
	e.Sequence = b.seq
	b.ring[b.ringNext] = e
	b.ringNext = (b.ringNext + 1) % b.ringCap
	if b.ringNext == 0 {
		b.ringFull = true
	}
	for _, s := range b.subs {
		if !s.category.matches(e.Category) {
			continue
		}
		select {
		case s.ch <- e:
		default:
		}
	}
	b.mu.Unlock()
	return e
}

// Subscribe registers a new subscriber filtered on category and returns its
// id (for Unsubscribe), its event channel, and a replay slice of the most
// recent buffered events matching category, oldest first.
func (b *Bus) Subscribe(category Category) (id int, ch <-chan Event, replay []Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id = b.nextID
	c := make(chan Event, b.subBuf)
	b.subs[id] = &subscription{id: id, category: category, ch: c}

	replay = b.snapshotLocked(category)
	return id, c, replay
}

// Unsubscribe removes subscriber id and closes its channel.
func (b *Bus) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.subs[id]; ok {
		close(s.ch)
		delete(b.subs, id)
	}
}

// snapshotLocked returns the ring buffer's contents matching category, in
// chronological order. Caller must hold b.mu.
func (b *Bus) snapshotLocked(category Category) []Event {
	var ordered []Event
	if b.ringFull {
		ordered = append(ordered, b.ring[b.ringNext:]...)
	}
	ordered = append(ordered, b.ring[:b.ringNext]...)

	out := make([]Event, 0, len(ordered))
	for _, e := range ordered {
		if e.JobID == uuid.Nil && e.Sequence == 0 {
			continue // unfilled ring slot
		}
		if category.matches(e.Category) {
			out = append(out, e)
		}
	}
	return out
}

// Snapshot returns every buffered event regardless of category, in
// chronological order — used by the persisted-replay-snapshot writer.
func (b *Bus) Snapshot() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked(CategoryAll)
}
