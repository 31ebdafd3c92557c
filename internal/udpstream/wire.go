// Package udpstream implements the chunked-JPEG datagram transport: a
// connectionless fan-out of encoded frames split into MTU-safe chunks,
// with subscriber liveness driven by any inbound packet.
package udpstream

import (
	"encoding/binary"
	"errors"
)

const (
	// Magic is the little-endian wire magic, ASCII "LSU2".
	Magic = 0x3255534C

	// HeaderSize is the fixed chunk header length.
	HeaderSize = 16

	// MaxPayload keeps every packet under common path MTUs.
	MaxPayload = 1200
)

// Hello is the canonical client keep-alive payload. The server accepts any
// packet as a keep-alive; clients send this one.
var Hello = []byte("LSU2")

// ChunkHeader is the fixed preamble of every datagram.
type ChunkHeader struct {
	Magic      uint32
	FrameID    uint32
	ChunkIndex uint16
	ChunkCount uint16
	PayloadLen uint16
	Reserved   uint16
}

var errShortPacket = errors.New("packet shorter than chunk header")

func (h ChunkHeader) marshal(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:], h.Magic)
	binary.LittleEndian.PutUint32(dst[4:], h.FrameID)
	binary.LittleEndian.PutUint16(dst[8:], h.ChunkIndex)
	binary.LittleEndian.PutUint16(dst[10:], h.ChunkCount)
	binary.LittleEndian.PutUint16(dst[12:], h.PayloadLen)
	binary.LittleEndian.PutUint16(dst[14:], h.Reserved)
}

func parseHeader(pkt []byte) (ChunkHeader, error) {
	if len(pkt) < HeaderSize {
		return ChunkHeader{}, errShortPacket
	}
	return ChunkHeader{
		Magic:      binary.LittleEndian.Uint32(pkt[0:]),
		FrameID:    binary.LittleEndian.Uint32(pkt[4:]),
		ChunkIndex: binary.LittleEndian.Uint16(pkt[8:]),
		ChunkCount: binary.LittleEndian.Uint16(pkt[10:]),
		PayloadLen: binary.LittleEndian.Uint16(pkt[12:]),
		Reserved:   binary.LittleEndian.Uint16(pkt[14:]),
	}, nil
}

// Split chunks one JPEG frame into ready-to-send packets sharing frameID.
func Split(frameID uint32, jpeg []byte) [][]byte {
	total := len(jpeg)
	chunkCount := (total + MaxPayload - 1) / MaxPayload

	packets := make([][]byte, 0, chunkCount)
	for ci := 0; ci < chunkCount; ci++ {
		off := ci * MaxPayload
		n := total - off
		if n > MaxPayload {
			n = MaxPayload
		}

		pkt := make([]byte, HeaderSize+n)
		ChunkHeader{
			Magic:      Magic,
			FrameID:    frameID,
			ChunkIndex: uint16(ci),
			ChunkCount: uint16(chunkCount),
			PayloadLen: uint16(n),
		}.marshal(pkt)
		copy(pkt[HeaderSize:], jpeg[off:off+n])
		packets = append(packets, pkt)
	}
	return packets
}
