package httpserver

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lanscr/lanscr/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
	// LAN viewers connect from file:// wrappers and other hosts; the
	// stream is already gated by Basic Auth when configured.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWS pushes raw JPEG frames as binary WebSocket messages. Same
// frame-slot contract and per-write deadline discipline as the MJPEG
// streamer; a viewer that cannot keep up is disconnected.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug("websocket upgrade failed", "error", err, "remoteAddr", r.RemoteAddr)
		return
	}
	defer conn.Close()

	slog := logging.WithSubscriber(log, uuid.NewString(), r.RemoteAddr)

	n := s.subs.Add()
	slog.Info("websocket streaming", "clients", n)
	defer func() {
		left := s.subs.Done()
		slog.Info("websocket client disconnected", "clients", left)
	}()

	// Drain control frames; a read error means the peer went away.
	peerGone := make(chan struct{})
	go func() {
		defer close(peerGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var lastSeq uint64
	for {
		select {
		case <-peerGone:
			return
		default:
		}
		if s.slot.Closed() {
			return
		}

		frame, seq, ok := s.slot.WaitNewer(lastSeq, slotWaitTimeout)
		if !ok {
			continue
		}
		lastSeq = seq

		conn.SetWriteDeadline(time.Now().Add(segmentWriteTimeout))
		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			return
		}
	}
}
