// Package stream holds the shared latest-frame slot and the capture loop
// that feeds it.
package stream

import (
	"sync"
	"sync/atomic"
	"time"
)

// Slot is a single-producer latest-value cell. Publish replaces the frame
// and bumps a strictly monotonic sequence number; readers wait for a
// sequence they have not served yet. Intermediate frames may be skipped but
// never reordered.
type Slot struct {
	mu     sync.Mutex
	bytes  []byte
	seq    uint64
	notify chan struct{}
	closed bool
}

func NewSlot() *Slot {
	return &Slot{notify: make(chan struct{})}
}

// Publish atomically swaps in the new frame, increments the sequence and
// wakes all waiters. The slice must not be mutated by the caller afterwards.
func (s *Slot) Publish(b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.bytes = b
	s.seq++
	close(s.notify)
	s.notify = make(chan struct{})
}

// Seq returns the current sequence number.
func (s *Slot) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// WaitNewer blocks until the slot holds a non-empty frame with a sequence
// different from lastSeq, the timeout elapses, or the slot is closed.
// ok is false on timeout/close.
func (s *Slot) WaitNewer(lastSeq uint64, timeout time.Duration) (b []byte, seq uint64, ok bool) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return nil, 0, false
		}
		if s.seq != lastSeq && len(s.bytes) > 0 {
			b, seq = s.bytes, s.seq
			s.mu.Unlock()
			return b, seq, true
		}
		wake := s.notify
		s.mu.Unlock()

		select {
		case <-wake:
		case <-deadline.C:
			return nil, 0, false
		}
	}
}

// Closed reports whether the slot has been shut down.
func (s *Slot) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close wakes every waiter and makes all future waits fail immediately.
func (s *Slot) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.notify)
}

// Counter tracks the number of live stream subscribers. The capture loop
// idles while it reads zero.
type Counter struct {
	n atomic.Int64
}

// Add registers a subscriber and returns the new count.
func (c *Counter) Add() int64 {
	return c.n.Add(1)
}

// Done deregisters a subscriber and returns the remaining count.
func (c *Counter) Done() int64 {
	return c.n.Add(-1)
}

// Count returns the current subscriber count.
func (c *Counter) Count() int64 {
	return c.n.Load()
}
