package audio

import (
	"encoding/binary"
	"math"
)

// FloatToS16 converts one float sample to signed 16-bit, clamping to
// [-1, 1] and rounding to nearest.
func FloatToS16(f float32) int16 {
	if f > 1.0 {
		f = 1.0
	}
	if f < -1.0 {
		f = -1.0
	}
	return int16(math.RoundToEven(float64(f) * 32767.0))
}

// ConvertS16LE converts a raw device packet to interleaved S16LE bytes.
// Unknown encodings and silence (endpoint flag or mute) become zeros of the
// same sample count, so the output length depends only on frames×channels.
func ConvertS16LE(pkt Packet, format Format, mute bool) []byte {
	samples := pkt.Frames * format.Channels
	out := make([]byte, samples*2)

	if mute || pkt.Silent {
		return out
	}

	switch format.Encoding {
	case EncodingPCM16:
		copy(out, pkt.Data)
	case EncodingFloat32:
		for s := 0; s < samples; s++ {
			off := s * 4
			if off+4 > len(pkt.Data) {
				break
			}
			f := math.Float32frombits(binary.LittleEndian.Uint32(pkt.Data[off:]))
			binary.LittleEndian.PutUint16(out[s*2:], uint16(FloatToS16(f)))
		}
	default:
		// Unknown mix format: keep the stream alive with silence.
	}
	return out
}
