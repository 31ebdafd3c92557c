package stream

import (
	"time"

	"github.com/lanscr/lanscr/internal/logging"
)

var log = logging.L("capture")

const (
	// idleTick is how often the loop re-checks for subscribers while
	// nobody is watching. No capture or encode happens during idle ticks.
	idleTick = 50 * time.Millisecond

	// DefaultHTTPFps is used when fps is unset in HTTP mode.
	DefaultHTTPFps = 10
	// MaxHTTPFps caps the HTTP capture cadence.
	MaxHTTPFps = 60
)

// ClampFps resolves an fps request against a mode default and ceiling.
func ClampFps(fps, def, max int) int {
	if fps <= 0 {
		fps = def
	}
	if fps > max {
		fps = max
	}
	return fps
}

// Loop is the sole frame producer. Grab captures and encodes one JPEG of
// the screen; the loop publishes into the slot only while subscribers
// exist, so an unwatched server costs no CPU and never disturbs the mouse.
type Loop struct {
	Grab func() ([]byte, error)
	Slot *Slot
	Subs *Counter
	Fps  int
}

// Run drives the capture cadence until stop is closed. A failed grab skips
// the tick; the loop itself never exits on capture errors.
func (l *Loop) Run(stop <-chan struct{}) {
	fps := ClampFps(l.Fps, DefaultHTTPFps, MaxHTTPFps)
	delay := time.Second / time.Duration(fps)

	for {
		select {
		case <-stop:
			return
		default:
		}

		if l.Subs.Count() <= 0 {
			select {
			case <-stop:
				return
			case <-time.After(idleTick):
			}
			continue
		}

		b, err := l.Grab()
		if err != nil {
			log.Debug("capture tick failed", "error", err)
		} else if len(b) > 0 {
			l.Slot.Publish(b)
		}

		select {
		case <-stop:
			return
		case <-time.After(delay):
		}
	}
}
