package stream

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestClampFps(t *testing.T) {
	cases := []struct {
		fps, def, max, want int
	}{
		{0, 10, 60, 10},
		{-3, 10, 60, 10},
		{25, 10, 60, 25},
		{200, 10, 60, 60},
		{0, 60, 120, 60},
		{150, 60, 120, 120},
	}
	for _, tc := range cases {
		if got := ClampFps(tc.fps, tc.def, tc.max); got != tc.want {
			t.Errorf("ClampFps(%d,%d,%d) = %d, want %d", tc.fps, tc.def, tc.max, got, tc.want)
		}
	}
}

func TestLoopIdlesWithoutSubscribers(t *testing.T) {
	var grabs atomic.Int64
	l := &Loop{
		Grab: func() ([]byte, error) {
			grabs.Add(1)
			return []byte{0xFF}, nil
		},
		Slot: NewSlot(),
		Subs: &Counter{},
		Fps:  60,
	}

	stop := make(chan struct{})
	go l.Run(stop)
	time.Sleep(300 * time.Millisecond)
	close(stop)

	if n := grabs.Load(); n != 0 {
		t.Fatalf("capture ran %d times with zero subscribers", n)
	}
}

func TestLoopPublishesWhileSubscribed(t *testing.T) {
	var grabs atomic.Int64
	slot := NewSlot()
	subs := &Counter{}
	l := &Loop{
		Grab: func() ([]byte, error) {
			grabs.Add(1)
			return []byte{0xAB}, nil
		},
		Slot: slot,
		Subs: subs,
		Fps:  60,
	}

	subs.Add()
	stop := make(chan struct{})
	go l.Run(stop)

	if _, _, ok := slot.WaitNewer(0, 2*time.Second); !ok {
		t.Fatal("no frame published while subscribed")
	}

	// Dropping the last subscriber quiesces the loop again.
	subs.Done()
	time.Sleep(100 * time.Millisecond)
	before := grabs.Load()
	time.Sleep(200 * time.Millisecond)
	after := grabs.Load()
	close(stop)

	if after != before {
		t.Fatalf("capture kept running after last subscriber left (%d -> %d)", before, after)
	}
}

func TestLoopSurvivesGrabErrors(t *testing.T) {
	var calls atomic.Int64
	slot := NewSlot()
	subs := &Counter{}
	subs.Add()
	l := &Loop{
		Grab: func() ([]byte, error) {
			if calls.Add(1) == 1 {
				return nil, errTest
			}
			return []byte{0x01}, nil
		},
		Slot: slot,
		Subs: subs,
		Fps:  60,
	}

	stop := make(chan struct{})
	defer close(stop)
	go l.Run(stop)

	if _, _, ok := slot.WaitNewer(0, 2*time.Second); !ok {
		t.Fatal("loop did not recover after a failed grab")
	}
}

var errTest = timeoutError{}

type timeoutError struct{}

func (timeoutError) Error() string { return "transient capture failure" }
