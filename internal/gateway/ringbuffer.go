package gateway

// sequencedEvent is a dispatched event as the replay buffer keeps it.
// Sequence is the gateway-wide number the event was sent with.
type sequencedEvent struct {
	Sequence     int64
	ExceptUserID int64
	Event
}

// ringBuffer is a fixed-size circular buffer of recent channel events.
type ringBuffer struct {
	events []sequencedEvent
	size   int
	pos    int
	full   bool
}

func newRingBuffer(size int) *ringBuffer {
	return &ringBuffer{
		events: make([]sequencedEvent, size),
		size:   size,
	}
}

func (rb *ringBuffer) add(ev sequencedEvent) {
	rb.events[rb.pos] = ev
	rb.pos = (rb.pos + 1) % rb.size
	if rb.pos == 0 {
		rb.full = true
	}
}

// since returns the buffered events with sequence > afterSeq that were
// delivered to userID, oldest first.
func (rb *ringBuffer) since(afterSeq, userID int64) []sequencedEvent {
	count, start := rb.pos, 0
	if rb.full {
		count, start = rb.size, rb.pos
	}

	var result []sequencedEvent
	for i := range count {
		se := rb.events[(start+i)%rb.size]
		if se.Sequence > afterSeq && se.ExceptUserID != userID {
			result = append(result, se)
		}
	}
	return result
}
