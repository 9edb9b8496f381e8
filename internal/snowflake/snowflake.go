package snowflake

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// Epoch is 2024-01-01 00:00:00 UTC.
const Epoch int64 = 1704067200000

// Bit layout: 41 bits of milliseconds, 10 bits of node, 12 bits of sequence.
const (
	nodeBits     = 10
	sequenceBits = 12

	MaxNode     = (1 << nodeBits) - 1
	maxSequence = (1 << sequenceBits) - 1

	nodeShift      = sequenceBits
	timestampShift = sequenceBits + nodeBits
)

// ID is a time-ordered identifier. It travels over JSON as a string so that
// JavaScript clients do not lose precision.
type ID int64

func (id ID) Int64() int64 { return int64(id) }

func (id ID) String() string { return strconv.FormatInt(int64(id), 10) }

// Time returns the wall-clock time embedded in the ID.
func (id ID) Time() time.Time { return ExtractTimestamp(int64(id)) }

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n int64
		if nerr := json.Unmarshal(data, &n); nerr != nil {
			return fmt.Errorf("snowflake: cannot unmarshal %s: %w", string(data), err)
		}
		*id = ID(n)
		return nil
	}
	n, err := Parse(s)
	if err != nil {
		return err
	}
	*id = n
	return nil
}

// Parse reads an ID from its decimal string form.
func Parse(s string) (ID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("snowflake: invalid id %q: %w", s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("snowflake: invalid id %q: must be positive", s)
	}
	return ID(n), nil
}

// Generator produces unique IDs for a single node.
type Generator struct {
	mu       sync.Mutex
	node     int64
	sequence int64
	lastTime int64
	now      func() int64
}

// NewGenerator creates a generator for the given node, which must be in [0, MaxNode].
func NewGenerator(node int64) (*Generator, error) {
	if node < 0 || node > MaxNode {
		return nil, fmt.Errorf("snowflake: node must be between 0 and %d", MaxNode)
	}
	return &Generator{
		node: node,
		now:  func() int64 { return time.Now().UnixMilli() - Epoch },
	}, nil
}

// Generate returns the next ID. IDs from one generator are strictly increasing,
// even when the wall clock steps backwards.
func (g *Generator) Generate() ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if now < g.lastTime {
		now = g.lastTime
	}

	if now == g.lastTime {
		g.sequence = (g.sequence + 1) & maxSequence
		if g.sequence == 0 {
			for now <= g.lastTime {
				now = g.now()
			}
		}
	} else {
		g.sequence = 0
	}
	g.lastTime = now

	return ID((now << timestampShift) | (g.node << nodeShift) | g.sequence)
}

// ExtractTimestamp returns the wall-clock time embedded in a raw ID.
func ExtractTimestamp(id int64) time.Time {
	return time.UnixMilli((id >> timestampShift) + Epoch)
}

// ExtractNode returns the node that generated a raw ID.
func ExtractNode(id int64) int64 {
	return (id >> nodeShift) & MaxNode
}
