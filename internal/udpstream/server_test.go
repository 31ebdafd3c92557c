package udpstream

import (
	"bytes"
	"image"
	"image/jpeg"
	"net"
	"sync"
	"testing"
	"time"
)

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 120, 90))
	for i := range img.Pix {
		img.Pix[i] = byte(i)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 70}); err != nil {
		t.Fatalf("encode test frame: %v", err)
	}
	return buf.Bytes()
}

type collectSink struct {
	mu     sync.Mutex
	frames []DecodedFrame
}

func (c *collectSink) HandleFrame(f DecodedFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
}

func (c *collectSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func TestServerClientLoopback(t *testing.T) {
	frame := testJPEG(t)
	srv, err := NewServer(ServerConfig{Port: 0, Fps: 30, Quality: 70}, func() ([]byte, error) {
		return frame, nil
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() { srv.Run(stop); close(done) }()

	sink := &collectSink{}
	client, err := NewClient("127.0.0.1", uint16(srv.Addr().Port), sink)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	clientStop := make(chan struct{})
	clientDone := make(chan struct{})
	go func() { client.Run(clientStop); close(clientDone) }()

	deadline := time.After(5 * time.Second)
	for sink.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("client decoded no frame within deadline")
		case <-time.After(20 * time.Millisecond):
		}
	}

	sink.mu.Lock()
	got := sink.frames[0]
	sink.mu.Unlock()
	if b := got.Image.Bounds(); b.Dx() != 120 || b.Dy() != 90 {
		t.Fatalf("decoded %dx%d, want 120x90", b.Dx(), b.Dy())
	}
	if got.JpegBytes != len(frame) {
		t.Fatalf("JpegBytes = %d, want %d", got.JpegBytes, len(frame))
	}

	close(clientStop)
	<-clientDone
	close(stop)
	<-done
}

func TestServerExpiresSilentSubscribers(t *testing.T) {
	oldTTL := subscriberTTL
	subscriberTTL = 300 * time.Millisecond
	defer func() { subscriberTTL = oldTTL }()

	srv, err := NewServer(ServerConfig{Port: 0, Fps: 30, Quality: 70}, func() ([]byte, error) {
		return testJPEG(t), nil
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() { srv.Run(stop); close(done) }()
	defer func() { close(stop); <-done }()

	// One hello, then silence.
	conn, err := net.DialUDP("udp4", nil, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: srv.Addr().Port})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.Write(Hello)

	deadline := time.After(2 * time.Second)
	for srv.SubscriberCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("subscriber never registered")
		case <-time.After(10 * time.Millisecond):
		}
	}

	expiry := time.After(3 * time.Second)
	for srv.SubscriberCount() != 0 {
		select {
		case <-expiry:
			t.Fatal("silent subscriber not expired")
		case <-time.After(20 * time.Millisecond):
		}
	}
}
