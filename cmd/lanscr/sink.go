package main

import (
	"log/slog"
	"time"

	"github.com/lanscr/lanscr/internal/logging"
	"github.com/lanscr/lanscr/internal/udpstream"
)

// frameStats stands in for a viewer window: it reports resolution changes
// and a once-per-second frame/byte rate.
type frameStats struct {
	log *slog.Logger

	width, height int
	frames        int
	bytes         int
	windowStart   time.Time
}

func newStatsSink() *frameStats {
	return &frameStats{log: logging.L("viewer"), windowStart: time.Now()}
}

func (s *frameStats) HandleFrame(f udpstream.DecodedFrame) {
	b := f.Image.Bounds()
	if b.Dx() != s.width || b.Dy() != s.height {
		s.width, s.height = b.Dx(), b.Dy()
		s.log.Info("stream resolution", "width", s.width, "height", s.height)
	}

	s.frames++
	s.bytes += f.JpegBytes
	if time.Since(s.windowStart) >= time.Second {
		s.log.Info("receiving", "fps", s.frames, "kbPerSec", s.bytes/1024)
		s.frames, s.bytes = 0, 0
		s.windowStart = time.Now()
	}
}
