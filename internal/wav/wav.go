// Package wav writes the streaming RIFF/WAVE header used by the audio
// endpoint.
package wav

import (
	"encoding/binary"
	"io"
)

// HeaderSize is the fixed size of the canonical PCM WAVE header.
const HeaderSize = 44

// streamingSize is the sentinel written to both RIFF and data size fields.
// Players treat it as "read until the connection closes".
const streamingSize = 0xFFFFFFFF

// Header builds a 44-byte PCM16 WAVE header for an unbounded stream. The
// format tag is always 1 (integer PCM) regardless of the source mix format;
// the payload is converted to S16LE before it hits the wire, so PCM16
// consumers decode correctly.
func Header(sampleRate, channels int) [HeaderSize]byte {
	var hdr [HeaderSize]byte

	blockAlign := channels * 2
	byteRate := sampleRate * blockAlign

	copy(hdr[0:], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:], streamingSize)
	copy(hdr[8:], "WAVE")

	copy(hdr[12:], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(hdr[20:], 1)  // wFormatTag = PCM
	binary.LittleEndian.PutUint16(hdr[22:], uint16(channels))
	binary.LittleEndian.PutUint32(hdr[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(hdr[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(hdr[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(hdr[34:], 16) // bitsPerSample

	copy(hdr[36:], "data")
	binary.LittleEndian.PutUint32(hdr[40:], streamingSize)

	return hdr
}

// WriteHeader writes the streaming header to w.
func WriteHeader(w io.Writer, sampleRate, channels int) error {
	hdr := Header(sampleRate, channels)
	_, err := w.Write(hdr[:])
	return err
}
