// Package events implements the Event Bus (C10): a bounded broadcast of
// typed job lifecycle events with a ring-buffer replay for late joiners,
// per spec §5/§7/§9 ("bounded broadcast channel plus a ring buffer for
// late-joiner replay... slow subscribers drop their slot, never block the
// producer").
package events

import (
	"time"

	"github.com/google/uuid"
)

// Kind is the discriminator field spec §6 requires ("Event payloads are
// serialized with a discriminator field and snake_case names").
type Kind string

const (
	KindQueued    Kind = "queued"
	KindStarted   Kind = "started"
	KindProgress  Kind = "progress"
	KindCompleted Kind = "completed"
	KindFailed    Kind = "failed"
	KindCancelled Kind = "cancelled"
)

// Category is the SSE subscription filter spec §6 names.
type Category string

const (
	CategoryAdmin Category = "admin"
	CategoryUser  Category = "user"
	CategoryAll   Category = "all"
)

// matches reports whether an event published under eventCategory should be
// delivered to a subscriber filtered on sub. CategoryAll subscribers see
// everything; otherwise the categories must match exactly.
func (sub Category) matches(eventCategory Category) bool {
	return sub == CategoryAll || sub == eventCategory
}

// Event is one lifecycle transition. Per job id, events are totally
// ordered and never reordered (spec §5); Sequence is the bus-wide
// broadcast order subscribers and the replay buffer use.
type Event struct {
	Type      Kind      `json:"type"`
	JobID     uuid.UUID `json:"job_id"`
	Category  Category  `json:"category"`
	Sequence  uint64    `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
	Fraction  float64   `json:"fraction,omitempty"`
	Step      string    `json:"step,omitempty"`
	Error     string    `json:"error,omitempty"`
}
