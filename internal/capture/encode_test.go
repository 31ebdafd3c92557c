package capture

import (
	"bytes"
	"image"
	"image/jpeg"
	"testing"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i] = byte(x * 255 / w)
			img.Pix[i+1] = byte(y * 255 / h)
			img.Pix[i+2] = 0x40
			img.Pix[i+3] = 0xFF
		}
	}
	return img
}

func TestEncodeJPEGProducesDecodableFrame(t *testing.T) {
	b, err := EncodeJPEG(testImage(64, 48), 80)
	if err != nil {
		t.Fatalf("EncodeJPEG: %v", err)
	}
	if len(b) < 4 || b[0] != 0xFF || b[1] != 0xD8 {
		t.Fatalf("missing JPEG SOI marker, got % X", b[:4])
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if cfg.Width != 64 || cfg.Height != 48 {
		t.Fatalf("decoded %dx%d, want 64x48", cfg.Width, cfg.Height)
	}
}

func TestEncodeJPEGClampsQuality(t *testing.T) {
	// Out-of-range qualities must not panic or error.
	for _, q := range []int{-10, 0, 1, 100, 250} {
		if _, err := EncodeJPEG(testImage(8, 8), q); err != nil {
			t.Fatalf("quality %d: %v", q, err)
		}
	}
}

func TestBgraToRGBA(t *testing.T) {
	src := []byte{0x01, 0x02, 0x03, 0x00, 0x0A, 0x0B, 0x0C, 0x00}
	dst := make([]byte, len(src))
	bgraToRGBA(dst, src)

	want := []byte{0x03, 0x02, 0x01, 0xFF, 0x0C, 0x0B, 0x0A, 0xFF}
	if !bytes.Equal(dst, want) {
		t.Fatalf("got % X, want % X", dst, want)
	}
}
