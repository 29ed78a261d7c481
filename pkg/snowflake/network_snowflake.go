// Package snowflake issues the 64-bit ids that key domain events and
// reputation history entries. Layout, high to low: 41 bits of milliseconds
// since 2024-01-01 UTC, 10 bits of node, 12 bits of sequence.
package snowflake

import (
	"errors"
	"sync"
	"time"
)

const (
	epoch int64 = 1704067200000

	nodeBits     = 10
	sequenceBits = 12

	MaxNode     = 1<<nodeBits - 1
	maxSequence = 1<<sequenceBits - 1

	timeShift = nodeBits + sequenceBits
	nodeShift = sequenceBits

	// A clock step back shorter than this is waited out instead of failing.
	maxBackwardDrift = 5 * time.Millisecond
)

var (
	ErrInvalidNode    = errors.New("snowflake: node must be between 0 and 1023")
	ErrClockMovedBack = errors.New("snowflake: clock moved backwards")
)

// Generator is safe for concurrent use. Ids from one node are strictly
// increasing.
type Generator struct {
	mu       sync.Mutex
	node     int64
	sequence int64
	last     int64
	now      func() int64
}

func NewGenerator(node int64) (*Generator, error) {
	if node < 0 || node > MaxNode {
		return nil, ErrInvalidNode
	}
	return &Generator{
		node: node,
		now:  func() int64 { return time.Now().UnixMilli() },
	}, nil
}

func (g *Generator) Generate() (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if now < g.last {
		if time.Duration(g.last-now)*time.Millisecond > maxBackwardDrift {
			return 0, ErrClockMovedBack
		}
		now = g.waitUntil(g.last)
	}

	if now == g.last {
		g.sequence = (g.sequence + 1) & maxSequence
		if g.sequence == 0 {
			now = g.waitUntil(g.last + 1)
		}
	} else {
		g.sequence = 0
	}
	g.last = now

	return (now-epoch)<<timeShift | g.node<<nodeShift | g.sequence, nil
}

func (g *Generator) waitUntil(ms int64) int64 {
	now := g.now()
	for now < ms {
		time.Sleep(100 * time.Microsecond)
		now = g.now()
	}
	return now
}

// Time returns the millisecond an id was issued at.
func Time(id int64) time.Time {
	return time.UnixMilli(id>>timeShift + epoch).UTC()
}

// Node returns the node that issued id.
func Node(id int64) int64 {
	return id >> nodeShift & MaxNode
}
