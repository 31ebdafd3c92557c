package audio

import "errors"

// Encoding identifies the sample encoding of a loopback source's mix format.
type Encoding int

const (
	// EncodingUnknown means the mix format was not recognized; callers
	// substitute silence rather than failing.
	EncodingUnknown Encoding = iota
	// EncodingPCM16 is interleaved signed 16-bit little-endian PCM.
	EncodingPCM16
	// EncodingFloat32 is interleaved IEEE 32-bit float PCM.
	EncodingFloat32
)

// Format describes the endpoint's mix format as reported by the platform.
type Format struct {
	Channels   int
	SampleRate int
	Encoding   Encoding
}

// Packet is one pulled chunk of loopback audio in the device's native
// encoding. Frames is the number of per-channel sample groups; a zero-frame
// packet means nothing was pending. Silent is the endpoint's own silence
// flag.
type Packet struct {
	Data   []byte
	Frames int
	Silent bool
}

// LoopbackSource pulls system ("what you hear") audio from the default
// render endpoint. Each subscriber owns its own source; sources are not
// shared.
type LoopbackSource interface {
	// Format returns the endpoint mix format. Valid after NewLoopback.
	Format() Format

	// ReadPacket returns the next pending packet without blocking. A
	// zero-frame packet means the caller should back off briefly.
	ReadPacket() (Packet, error)

	// Close stops capture and releases the endpoint.
	Close() error
}

// NewLoopback opens a loopback capture session on the default render device.
func NewLoopback() (LoopbackSource, error) {
	return newPlatformLoopback()
}

// ErrNotSupported is returned when loopback capture is unavailable on this
// platform. The HTTP server still runs without audio.
var ErrNotSupported = errors.New("audio loopback capture not supported on this platform")
