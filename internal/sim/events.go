package sim

import "github.com/signalsfoundry/spaceflight-sim/model"

// EventKind enumerates lifecycle events external subscribers can observe.
type EventKind int

const (
	EventPhaseChanged EventKind = iota
	EventMissionCompleted
	EventMissionAborted
)

func (k EventKind) String() string {
	switch k {
	case EventPhaseChanged:
		return "phase_changed"
	case EventMissionCompleted:
		return "mission_completed"
	case EventMissionAborted:
		return "mission_aborted"
	default:
		return "unknown"
	}
}

// Event is a lifecycle notification. Delivery is best-effort: a subscriber
// that falls behind misses events rather than blocking the producer loop.
type Event struct {
	Kind    EventKind
	SimTime float64
	Phase   model.Phase
	// Reason is set for EventMissionAborted.
	Reason string
}

// Subscribe registers a lifecycle event channel with the given buffer size
// and returns it together with an unsubscribe function.
func (c *Controller) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	c.mu.Lock()
	c.subscribers = append(c.subscribers, ch)
	c.mu.Unlock()

	unsubscribe := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, sub := range c.subscribers {
			if sub == ch {
				c.subscribers = append(c.subscribers[:i], c.subscribers[i+1:]...)
				break
			}
		}
	}
	return ch, unsubscribe
}

// publish delivers an event to all subscribers without blocking. Callers
// hold c.mu.
func (c *Controller) publish(ev Event) {
	for _, sub := range c.subscribers {
		select {
		case sub <- ev:
		default:
			// Subscriber is full; the producer never waits.
		}
	}
}
