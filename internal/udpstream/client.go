package udpstream

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"net"
	"time"
)

const helloInterval = 500 * time.Millisecond

// DecodedFrame is one fully reassembled and decoded frame.
type DecodedFrame struct {
	Image     image.Image
	JpegBytes int
}

// FrameSink receives decoded frames from the client. The viewer's paint
// loop lives behind this seam.
type FrameSink interface {
	HandleFrame(frame DecodedFrame)
}

// Client subscribes to a datagram server by sending periodic hellos and
// reassembling whatever comes back. Partial frames are never delivered.
type Client struct {
	server *net.UDPAddr
	conn   *net.UDPConn
	sink   FrameSink
}

// NewClient binds an ephemeral socket aimed at the given server.
func NewClient(serverIP string, port uint16, sink FrameSink) (*Client, error) {
	ip := net.ParseIP(serverIP)
	if ip == nil || ip.To4() == nil {
		return nil, fmt.Errorf("bad server address %q", serverIP)
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		return nil, fmt.Errorf("udp bind: %w", err)
	}
	conn.SetWriteBuffer(socketBufferBytes)
	conn.SetReadBuffer(socketBufferBytes)

	return &Client{
		server: &net.UDPAddr{IP: ip.To4(), Port: int(port)},
		conn:   conn,
		sink:   sink,
	}, nil
}

// Run pumps the socket until stop is closed.
func (c *Client) Run(stop <-chan struct{}) error {
	defer c.conn.Close()

	var asm Assembler
	buf := make([]byte, HeaderSize+MaxPayload+64)
	var lastHello time.Time

	log.Info("UDP client subscribing", "server", c.server.String())

	for {
		select {
		case <-stop:
			return nil
		default:
		}

		if time.Since(lastHello) >= helloInterval {
			if _, err := c.conn.WriteToUDP(Hello, c.server); err != nil {
				log.Debug("hello send failed", "error", err)
			}
			lastHello = time.Now()
		}

		c.conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		n, _, err := c.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return err
		}

		jpegBytes, complete := asm.Feed(buf[:n])
		if !complete {
			continue
		}

		img, err := jpeg.Decode(bytes.NewReader(jpegBytes))
		if err != nil {
			log.Debug("frame decode failed", "error", err, "bytes", len(jpegBytes))
			continue
		}
		c.sink.HandleFrame(DecodedFrame{Image: img, JpegBytes: len(jpegBytes)})
	}
}
