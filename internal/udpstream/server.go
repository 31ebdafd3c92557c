package udpstream

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/lanscr/lanscr/internal/logging"
	"github.com/lanscr/lanscr/internal/stream"
)

var log = logging.L("udp")

const (
	// DefaultFps is used when fps is unset in datagram mode.
	DefaultFps = 60
	// MaxFps caps the datagram capture cadence.
	MaxFps = 120

	socketBufferBytes = 4 * 1024 * 1024
	emptyIdle         = 25 * time.Millisecond
	recvPoll          = 250 * time.Millisecond
)

// subscriberTTL is how long a subscriber survives without sending anything.
var subscriberTTL = 3 * time.Second

type subscriber struct {
	addr     *net.UDPAddr
	lastSeen time.Time
}

// ServerConfig configures the datagram fan-out.
type ServerConfig struct {
	Port    uint16
	Fps     int
	Quality int
}

// Server pushes chunked JPEG frames to every address that has sent it a
// packet recently. Capture is driven directly by the send loop; there is
// no shared frame slot on this path.
type Server struct {
	cfg  ServerConfig
	grab func() ([]byte, error)

	conn *net.UDPConn

	mu   sync.Mutex
	subs map[string]*subscriber

	frameID uint32
}

// NewServer binds the datagram socket. grab captures and encodes one JPEG.
func NewServer(cfg ServerConfig, grab func() ([]byte, error)) (*Server, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: int(cfg.Port)})
	if err != nil {
		return nil, fmt.Errorf("udp bind on port %d: %w", cfg.Port, err)
	}
	conn.SetWriteBuffer(socketBufferBytes)
	conn.SetReadBuffer(socketBufferBytes)

	return &Server{
		cfg:  cfg,
		grab: grab,
		conn: conn,
		subs: make(map[string]*subscriber),
	}, nil
}

// Addr returns the bound socket address.
func (s *Server) Addr() *net.UDPAddr {
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// Run services the socket until stop is closed.
func (s *Server) Run(stop <-chan struct{}) error {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.recvLoop(stop)
	}()

	log.Info("UDP server listening", "addr", s.conn.LocalAddr().String(),
		"fps", stream.ClampFps(s.cfg.Fps, DefaultFps, MaxFps), "quality", s.cfg.Quality)

	s.sendLoop(stop)

	s.conn.Close()
	wg.Wait()
	return nil
}

// SubscriberCount returns the number of live subscribers (expired entries
// are counted until the next sweep).
func (s *Server) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// recvLoop treats any inbound packet as a keep-alive for its sender.
// Payloads are never interpreted.
func (s *Server) recvLoop(stop <-chan struct{}) {
	buf := make([]byte, 256)
	for {
		select {
		case <-stop:
			return
		default:
		}

		s.conn.SetReadDeadline(time.Now().Add(recvPoll))
		_, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return
		}

		key := addr.String()
		s.mu.Lock()
		if sub, ok := s.subs[key]; ok {
			sub.lastSeen = time.Now()
		} else {
			s.subs[key] = &subscriber{addr: addr, lastSeen: time.Now()}
			log.Debug("UDP subscriber added", "remoteAddr", key)
		}
		s.mu.Unlock()
	}
}

// snapshot expires silent subscribers and returns a copy of the rest. The
// lock is never held across sends.
func (s *Server) snapshot() []*subscriber {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := make([]*subscriber, 0, len(s.subs))
	for key, sub := range s.subs {
		if now.Sub(sub.lastSeen) > subscriberTTL {
			delete(s.subs, key)
			log.Debug("UDP subscriber expired", "remoteAddr", key)
			continue
		}
		snap = append(snap, sub)
	}
	return snap
}

func (s *Server) sendLoop(stop <-chan struct{}) {
	fps := stream.ClampFps(s.cfg.Fps, DefaultFps, MaxFps)
	delay := time.Second / time.Duration(fps)

	for {
		select {
		case <-stop:
			return
		default:
		}

		snap := s.snapshot()
		if len(snap) == 0 {
			select {
			case <-stop:
				return
			case <-time.After(emptyIdle):
			}
			continue
		}

		jpeg, err := s.grab()
		if err != nil || len(jpeg) == 0 {
			select {
			case <-stop:
				return
			case <-time.After(10 * time.Millisecond):
			}
			continue
		}

		s.frameID++
		for _, pkt := range Split(s.frameID, jpeg) {
			for _, sub := range snap {
				s.conn.WriteToUDP(pkt, sub.addr)
			}
		}

		select {
		case <-stop:
			return
		case <-time.After(delay):
		}
	}
}
