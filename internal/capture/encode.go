package capture

import (
	"bytes"
	"image"
	"image/jpeg"
	"sync"
)

var bufPool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

func getBuffer() *bytes.Buffer {
	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns an encode buffer to the pool after its bytes have been
// consumed.
func PutBuffer(buf *bytes.Buffer) {
	bufPool.Put(buf)
}

// EncodeJPEG encodes an image as JPEG with the specified quality (1-100).
func EncodeJPEG(img *image.RGBA, quality int) ([]byte, error) {
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}

	buf := getBuffer()
	defer PutBuffer(buf)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// CaptureJPEG grabs one frame from the capturer and encodes it.
func CaptureJPEG(c ScreenCapturer, quality int) (Frame, error) {
	img, err := c.Capture()
	if err != nil {
		return Frame{}, err
	}
	b, err := EncodeJPEG(img, quality)
	if err != nil {
		return Frame{}, err
	}
	bounds := img.Bounds()
	return Frame{Bytes: b, Width: bounds.Dx(), Height: bounds.Dy()}, nil
}
