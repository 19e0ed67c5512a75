package domain

import "sync/atomic"

// Sequencer hands out the order keys used to break ties between entries that share a timestamp.
// Implementations must be safe for concurrent use and must never return the same value twice.
type Sequencer interface {
	Next() int64
	// AdvanceTo makes every later value greater than floor.
	AdvanceTo(floor int64)
}

// AtomicSequencer is a lock-free Sequencer. The zero value is ready to use and its first value is 1.
type AtomicSequencer struct {
	counter atomic.Int64
}

// NewAtomicSequencer returns a sequencer whose next value is seed+1.
func NewAtomicSequencer(seed int64) *AtomicSequencer {
	s := &AtomicSequencer{}
	s.counter.Store(seed)
	return s
}

// Next increments the counter and returns the new value.
func (s *AtomicSequencer) Next() int64 {
	return s.counter.Add(1)
}

// AdvanceTo raises the counter to at least floor, so the next value is above it.
// A counter already past floor is left untouched.
func (s *AtomicSequencer) AdvanceTo(floor int64) {
	for {
		current := s.counter.Load()
		if current >= floor || s.counter.CompareAndSwap(current, floor) {
			return
		}
	}
}

// Current returns the last value handed out.
func (s *AtomicSequencer) Current() int64 {
	return s.counter.Load()
}

// ProcessSequencer is the process-wide sequencer. It is seeded at 0, never reset and only
// ever advanced past keys persisted by earlier processes.
var ProcessSequencer = &AtomicSequencer{}
