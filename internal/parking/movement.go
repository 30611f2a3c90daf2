package parking

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventEntry EventType = "ENTRADA"
	EventExit  EventType = "SAIDA"
)

// MovementEvent is an immutable record of one entry or exit transition.
// DurationMinutes is only set on exits.
type MovementEvent struct {
	ID              string
	VehicleID       int64
	Plate           string
	SpotID          int64
	YardID          int64
	Type            EventType
	Timestamp       time.Time
	DurationMinutes int64
}

// MovementLog is an append-only event sequence. Insertion order is
// chronological order; each append is atomic.
type MovementLog struct {
	mu     sync.RWMutex
	events []MovementEvent
}

func NewMovementLog() *MovementLog {
	return &MovementLog{}
}

func (l *MovementLog) Append(e MovementEvent) MovementEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	l.events = append(l.events, e)
	return e
}

// EventsBetween returns events with start <= timestamp <= end, in insertion
// order.
func (l *MovementLog) EventsBetween(start, end time.Time) []MovementEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []MovementEvent
	for _, e := range l.events {
		if !e.Timestamp.Before(start) && !e.Timestamp.After(end) {
			out = append(out, e)
		}
	}
	return out
}

func (l *MovementLog) CountBetween(t EventType, start, end time.Time) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, e := range l.events {
		if e.Type == t && !e.Timestamp.Before(start) && !e.Timestamp.After(end) {
			n++
		}
	}
	return n
}

func (l *MovementLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}
