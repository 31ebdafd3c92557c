// Package httpserver multiplexes one frame producer to many concurrent
// HTTP subscribers (MJPEG, WAV audio, WebSocket) with strict per-client
// backpressure: a subscriber that cannot drain a write within its deadline
// is dropped, never queued behind.
package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lanscr/lanscr/internal/logging"
	"github.com/lanscr/lanscr/internal/stream"
)

var log = logging.L("http")

const (
	// headerWriteTimeout bounds the initial response header send.
	headerWriteTimeout = 1000 * time.Millisecond
	// segmentWriteTimeout bounds every subsequent stream segment.
	segmentWriteTimeout = 500 * time.Millisecond
	// slotWaitTimeout is how long a subscriber waits for a newer frame
	// before re-checking for shutdown.
	slotWaitTimeout = 1000 * time.Millisecond
	// drainTimeout is how long Shutdown waits for subscribers after the
	// stop signal; they observe the closed slot well before this.
	drainTimeout = 2 * time.Second
)

// Options configures the HTTP streaming server.
type Options struct {
	Port    uint16
	Fps     int
	Quality int

	// Auth enables Basic Auth on every endpoint when non-nil.
	Auth *AuthConfig
	// Private is reported by /control; true when Auth was auto-generated.
	Private bool

	// AudioEnabled gates the /audio endpoint entirely.
	AudioEnabled bool
	// MuteAudio starts the server with the mute flag set.
	MuteAudio bool
}

// Server owns the frame slot, the capture loop, and the listener.
type Server struct {
	opts Options
	auth *AuthConfig

	grab func() ([]byte, error)

	slot  *stream.Slot
	subs  *stream.Counter
	muted atomic.Bool

	httpSrv *http.Server
}

// New assembles a server around a grab function that captures and encodes
// one JPEG frame.
func New(opts Options, grab func() ([]byte, error)) *Server {
	s := &Server{
		opts: opts,
		auth: opts.Auth,
		grab: grab,
		slot: stream.NewSlot(),
		subs: &stream.Counter{},
	}
	s.muted.Store(opts.MuteAudio)
	return s
}

// Muted reports the server-wide audio mute flag.
func (s *Server) Muted() bool {
	return s.muted.Load()
}

// SetMuted flips the server-wide audio mute flag; every audio subscriber
// sees it on its next packet.
func (s *Server) SetMuted(muted bool) {
	s.muted.Store(muted)
}

// SubscriberCount returns the live video subscriber count.
func (s *Server) SubscriberCount() int64 {
	return s.subs.Count()
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/audio", s.handleAudio)
	mux.HandleFunc("/control", s.handleControl)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" || r.URL.Path == "/index.html" {
			s.handleLanding(w, r)
			return
		}
		// Every other path, /mjpeg included, is the video stream.
		s.handleMJPEG(w, r)
	})

	return s.withAuth(s.logRequests(mux))
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "remoteAddr", r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

// Run binds the listener and serves until stop is closed. Bind failures
// surface before any subscriber is admitted.
func (s *Server) Run(stop <-chan struct{}) error {
	ln, err := net.Listen("tcp4", fmt.Sprintf("0.0.0.0:%d", s.opts.Port))
	if err != nil {
		return fmt.Errorf("bind port %d: %w", s.opts.Port, err)
	}

	loop := &stream.Loop{
		Grab: s.grab,
		Slot: s.slot,
		Subs: s.subs,
		Fps:  s.opts.Fps,
	}
	// The loop gets its own stop so it also winds down when Serve fails
	// on its own (the listener died) rather than only on the stop signal.
	loopStop := make(chan struct{})
	var stopLoop sync.Once
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		loop.Run(loopStop)
	}()

	s.httpSrv = &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: time.Second,
	}

	go func() {
		<-stop
		stopLoop.Do(func() { close(loopStop) })
		// Wake every streamer immediately; they exit at their next poll.
		s.slot.Close()
		ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		s.httpSrv.Shutdown(ctx)
		s.httpSrv.Close()
	}()

	log.Info("HTTP server listening", "addr", ln.Addr().String(),
		"fps", stream.ClampFps(s.opts.Fps, stream.DefaultHTTPFps, stream.MaxHTTPFps),
		"quality", s.opts.Quality,
		"private", s.opts.Private)

	err = s.httpSrv.Serve(ln)
	stopLoop.Do(func() { close(loopStop) })
	<-loopDone
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
