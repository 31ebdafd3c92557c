//go:build windows

package stopsignal

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/Microsoft/go-winio"
)

// pipeSDDL mirrors the original event DACL: Everyone gets generic all, and
// the low mandatory integrity label lets a non-elevated caller stop an
// elevated server on the same host.
const pipeSDDL = `D:(A;;GA;;;WD)S:(ML;;NW;;;LW)`

func pipeName(port uint16) string {
	return fmt.Sprintf(`\\.\pipe\LANSCR_STOP_%d`, port)
}

func listenSignal(port uint16) (net.Listener, error) {
	l, err := winio.ListenPipe(pipeName(port), &winio.PipeConfig{
		SecurityDescriptor: pipeSDDL,
	})
	if err != nil {
		// The pipe name being taken means a live server owns the port;
		// winio creates first instances only.
		if errors.Is(err, os.ErrPermission) || errors.Is(err, os.ErrExist) || Probe(port) {
			return nil, ErrAlreadyRunning
		}
		return nil, err
	}
	return l, nil
}

func dialSignal(port uint16, timeout time.Duration) (net.Conn, error) {
	return winio.DialPipe(pipeName(port), &timeout)
}

// detectPorts scans the whole pipe namespace by port, like the original's
// event scan. Nonexistent names fail instantly, so the sweep is cheap.
func detectPorts() []uint16 {
	probeTimeout := 50 * time.Millisecond
	var ports []uint16
	for port := 1; port <= 65535; port++ {
		conn, err := winio.DialPipe(pipeName(uint16(port)), &probeTimeout)
		if err != nil {
			continue
		}
		conn.Close()
		ports = append(ports, uint16(port))
	}
	return ports
}
