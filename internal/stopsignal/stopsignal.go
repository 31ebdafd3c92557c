// Package stopsignal implements the named cross-process stop primitive.
//
// Creating the signal for a port is the single-server admission check:
// if the name already exists, another server owns the port. Any local
// process may request a graceful stop by signalling the name, and mere
// presence of the name means "a server is running on this port". Any
// user may signal, including across privilege levels, which is a
// deliberate LAN-trust decision inherited from the protocol.
package stopsignal

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/lanscr/lanscr/internal/logging"
)

var log = logging.L("stopsignal")

// ErrAlreadyRunning is returned by Create when a server already owns the
// port's stop signal.
var ErrAlreadyRunning = errors.New("a server is already running for this port")

// ErrNotRunning is returned by Stop when no server owns the port.
var ErrNotRunning = errors.New("no running server detected on this port")

const (
	dialTimeout  = 500 * time.Millisecond
	readDeadline = 2 * time.Second
)

// stopWord is the payload that distinguishes a stop request from a
// presence probe on the same endpoint.
var stopWord = []byte("STOP")

// Signal is the server-owned side of the named stop primitive.
type Signal struct {
	port     uint16
	listener net.Listener

	ch   chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// Create claims the stop signal for port. It fails with ErrAlreadyRunning
// if a live server already holds it.
func Create(port uint16) (*Signal, error) {
	l, err := listenSignal(port)
	if err != nil {
		return nil, err
	}

	s := &Signal{
		port:     port,
		listener: l,
		ch:       make(chan struct{}),
	}
	s.wg.Add(1)
	go s.serve()
	return s, nil
}

// C returns a channel that is closed once a stop has been requested,
// either cross-process or via Trigger.
func (s *Signal) C() <-chan struct{} {
	return s.ch
}

// Trigger requests a stop from within the owning process (Ctrl-C path).
func (s *Signal) Trigger() {
	s.once.Do(func() { close(s.ch) })
}

// Close releases the name. After Close, Create on the same port succeeds
// again and probes report "not running".
func (s *Signal) Close() error {
	err := s.listener.Close()
	s.wg.Wait()
	return err
}

func (s *Signal) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer conn.Close()
			conn.SetReadDeadline(time.Now().Add(readDeadline))
			buf := make([]byte, 8)
			n, err := conn.Read(buf)
			if err != nil && err != io.EOF {
				return
			}
			// Anything other than a stop request is a presence probe.
			if n >= len(stopWord) && string(buf[:len(stopWord)]) == string(stopWord) {
				log.Info("stop requested", "port", s.port)
				s.Trigger()
			}
		}()
	}
}

// Probe reports whether a server currently owns the stop signal for port.
func Probe(port uint16) bool {
	conn, err := dialSignal(port, dialTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Stop asks the server owning port to shut down gracefully.
func Stop(port uint16) error {
	conn, err := dialSignal(port, dialTimeout)
	if err != nil {
		return ErrNotRunning
	}
	defer conn.Close()
	if _, err := conn.Write(stopWord); err != nil {
		return err
	}
	return nil
}

// Detect lists the ports with a live server on this host, ascending.
func Detect() []uint16 {
	return detectPorts()
}
