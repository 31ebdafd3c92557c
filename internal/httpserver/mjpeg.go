package httpserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lanscr/lanscr/internal/logging"
)

// handleMJPEG serves one multipart/x-mixed-replace stream. Every segment
// (part header, JPEG body, trailer) is sent under its own deadline so a
// stalled peer is dropped instead of accumulating seconds of stale frames
// in its socket buffer.
func (s *Server) handleMJPEG(w http.ResponseWriter, r *http.Request) {
	slog := logging.WithSubscriber(log, uuid.NewString(), r.RemoteAddr)

	rc := http.NewResponseController(w)

	h := w.Header()
	h.Set("Connection", "close")
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
	h.Set("X-Accel-Buffering", "no")
	h.Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")

	rc.SetWriteDeadline(time.Now().Add(headerWriteTimeout))
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		return
	}

	n := s.subs.Add()
	slog.Info("streaming", "clients", n)
	defer func() {
		left := s.subs.Done()
		slog.Info("client disconnected", "clients", left)
	}()

	ctx := r.Context()
	var lastSeq uint64

	for {
		if s.slot.Closed() || ctx.Err() != nil {
			return
		}

		frame, seq, ok := s.slot.WaitNewer(lastSeq, slotWaitTimeout)
		if !ok {
			continue
		}
		lastSeq = seq

		meta := fmt.Sprintf("--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(frame))

		if !s.writeSegment(rc, w, []byte(meta)) {
			return
		}
		if !s.writeSegment(rc, w, frame) {
			return
		}
		if !s.writeSegment(rc, w, []byte("\r\n")) {
			return
		}
	}
}

// writeSegment sends one bounded segment and flushes it. A deadline or
// write error is fatal to this subscriber only.
func (s *Server) writeSegment(rc *http.ResponseController, w http.ResponseWriter, b []byte) bool {
	if err := rc.SetWriteDeadline(time.Now().Add(segmentWriteTimeout)); err != nil {
		return false
	}
	if _, err := w.Write(b); err != nil {
		return false
	}
	return rc.Flush() == nil
}
