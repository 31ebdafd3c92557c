package httpserver

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lanscr/lanscr/internal/audio"
	"github.com/lanscr/lanscr/internal/logging"
	"github.com/lanscr/lanscr/internal/wav"
)

const audioIdle = 5 * time.Millisecond

// handleAudio serves one streaming WAV response. Each subscriber owns its
// own loopback session so buffer positions never leak across clients. The
// session is released on every exit path.
func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	if !s.opts.AudioEnabled {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("Audio disabled"))
		return
	}

	src, err := audio.NewLoopback()
	if err != nil {
		log.Warn("audio endpoint unavailable", "error", err)
		http.Error(w, "Audio unavailable", http.StatusServiceUnavailable)
		return
	}
	defer src.Close()

	slog := logging.WithSubscriber(log, uuid.NewString(), r.RemoteAddr)

	rc := http.NewResponseController(w)
	h := w.Header()
	h.Set("Connection", "close")
	h.Set("Cache-Control", "no-cache")
	h.Set("Pragma", "no-cache")
	h.Set("Content-Type", "audio/wav")

	format := src.Format()
	rc.SetWriteDeadline(time.Now().Add(headerWriteTimeout))
	w.WriteHeader(http.StatusOK)
	if err := wav.WriteHeader(w, format.SampleRate, format.Channels); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		return
	}

	slog.Info("audio streaming", "sampleRate", format.SampleRate, "channels", format.Channels)

	ctx := r.Context()
	for {
		if s.slot.Closed() || ctx.Err() != nil {
			return
		}

		pkt, err := src.ReadPacket()
		if err != nil {
			slog.Debug("audio source ended", "error", err)
			return
		}
		if pkt.Frames == 0 {
			time.Sleep(audioIdle)
			continue
		}

		// Mute takes effect on the next packet; unknown formats and the
		// endpoint's silent flag also become zeros of the same length.
		pcm := audio.ConvertS16LE(pkt, format, s.muted.Load())
		if !s.writeSegment(rc, w, pcm) {
			return
		}
	}
}
