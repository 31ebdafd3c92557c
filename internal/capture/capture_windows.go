//go:build windows

package capture

import (
	"fmt"
	"image"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	gdi32  = windows.NewLazySystemDLL("gdi32.dll")

	procGetDC            = user32.NewProc("GetDC")
	procReleaseDC        = user32.NewProc("ReleaseDC")
	procGetSystemMetrics = user32.NewProc("GetSystemMetrics")
	procGetCursorInfo    = user32.NewProc("GetCursorInfo")
	procGetIconInfo      = user32.NewProc("GetIconInfo")
	procDrawIconEx       = user32.NewProc("DrawIconEx")

	procCreateCompatibleDC     = gdi32.NewProc("CreateCompatibleDC")
	procCreateCompatibleBitmap = gdi32.NewProc("CreateCompatibleBitmap")
	procSelectObject           = gdi32.NewProc("SelectObject")
	procBitBlt                 = gdi32.NewProc("BitBlt")
	procDeleteDC               = gdi32.NewProc("DeleteDC")
	procDeleteObject           = gdi32.NewProc("DeleteObject")
	procGetDIBits              = gdi32.NewProc("GetDIBits")
)

const (
	smXVirtualScreen  = 76
	smYVirtualScreen  = 77
	smCxVirtualScreen = 78
	smCyVirtualScreen = 79

	srcCopy    = 0x00CC0020
	captureBlt = 0x40000000

	cursorShowing = 0x00000001
	diNormal      = 0x0003

	dibRGBColors = 0
)

type bitmapInfoHeader struct {
	BiSize          uint32
	BiWidth         int32
	BiHeight        int32
	BiPlanes        uint16
	BiBitCount      uint16
	BiCompression   uint32
	BiSizeImage     uint32
	BiXPelsPerMeter int32
	BiYPelsPerMeter int32
	BiClrUsed       uint32
	BiClrImportant  uint32
}

type bitmapInfo struct {
	BmiHeader bitmapInfoHeader
	BmiColors [1]uint32
}

type cursorInfoW struct {
	CbSize      uint32
	Flags       uint32
	HCursor     uintptr
	PtScreenPos struct{ X, Y int32 }
}

type iconInfoW struct {
	FIcon    int32
	XHotspot uint32
	YHotspot uint32
	HbmMask  uintptr
	HbmColor uintptr
}

// gdiCapturer captures the full virtual screen via GDI. Handles are created
// once and reused; they are recreated when the virtual screen rectangle
// changes (monitor hotplug, resolution change).
type gdiCapturer struct {
	config Config
	mu     sync.Mutex

	screenDC  uintptr
	memDC     uintptr
	hBitmap   uintptr
	oldBitmap uintptr
	bi        bitmapInfo

	// Virtual screen rectangle from the last ensureHandles.
	originX int
	originY int
	width   int
	height  int
	inited  bool

	// Reusable BGRA buffer for GetDIBits.
	pixBuf []byte
}

func newPlatformCapturer(config Config) (ScreenCapturer, error) {
	return &gdiCapturer{config: config}, nil
}

func virtualScreenRect() (x, y, w, h int) {
	vx, _, _ := procGetSystemMetrics.Call(smXVirtualScreen)
	vy, _, _ := procGetSystemMetrics.Call(smYVirtualScreen)
	vw, _, _ := procGetSystemMetrics.Call(smCxVirtualScreen)
	vh, _, _ := procGetSystemMetrics.Call(smCyVirtualScreen)
	return int(int32(vx)), int(int32(vy)), int(vw), int(vh)
}

func (c *gdiCapturer) ensureHandles() error {
	x, y, w, h := virtualScreenRect()
	if w == 0 || h == 0 {
		return fmt.Errorf("GetSystemMetrics returned zero virtual screen size")
	}

	if c.inited && c.width == w && c.height == h && c.originX == x && c.originY == y {
		return nil
	}

	c.releaseHandles()

	screenDC, _, _ := procGetDC.Call(0)
	if screenDC == 0 {
		return fmt.Errorf("GetDC failed")
	}
	memDC, _, _ := procCreateCompatibleDC.Call(screenDC)
	if memDC == 0 {
		procReleaseDC.Call(0, screenDC)
		return fmt.Errorf("CreateCompatibleDC failed")
	}
	hBitmap, _, _ := procCreateCompatibleBitmap.Call(screenDC, uintptr(w), uintptr(h))
	if hBitmap == 0 {
		procDeleteDC.Call(memDC)
		procReleaseDC.Call(0, screenDC)
		return fmt.Errorf("CreateCompatibleBitmap failed")
	}
	oldBitmap, _, _ := procSelectObject.Call(memDC, hBitmap)

	c.screenDC = screenDC
	c.memDC = memDC
	c.hBitmap = hBitmap
	c.oldBitmap = oldBitmap
	c.originX = x
	c.originY = y
	c.width = w
	c.height = h

	c.bi = bitmapInfo{}
	c.bi.BmiHeader.BiSize = uint32(unsafe.Sizeof(c.bi.BmiHeader))
	c.bi.BmiHeader.BiWidth = int32(w)
	c.bi.BmiHeader.BiHeight = -int32(h) // top-down
	c.bi.BmiHeader.BiPlanes = 1
	c.bi.BmiHeader.BiBitCount = 32

	if need := w * h * 4; cap(c.pixBuf) < need {
		c.pixBuf = make([]byte, need)
	} else {
		c.pixBuf = c.pixBuf[:w*h*4]
	}

	c.inited = true
	return nil
}

func (c *gdiCapturer) releaseHandles() {
	if !c.inited {
		return
	}
	if c.oldBitmap != 0 {
		procSelectObject.Call(c.memDC, c.oldBitmap)
	}
	if c.hBitmap != 0 {
		procDeleteObject.Call(c.hBitmap)
	}
	if c.memDC != 0 {
		procDeleteDC.Call(c.memDC)
	}
	if c.screenDC != 0 {
		procReleaseDC.Call(0, c.screenDC)
	}
	c.screenDC, c.memDC, c.hBitmap, c.oldBitmap = 0, 0, 0, 0
	c.inited = false
}

// Capture grabs the virtual screen, overlays the cursor, and converts the
// BGRA bits to an RGBA image.
func (c *gdiCapturer) Capture() (*image.RGBA, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureHandles(); err != nil {
		return nil, err
	}

	ok, _, _ := procBitBlt.Call(
		c.memDC, 0, 0, uintptr(c.width), uintptr(c.height),
		c.screenDC, uintptr(c.originX), uintptr(c.originY),
		srcCopy|captureBlt,
	)
	if ok == 0 {
		// Transient on secure desktop transitions; handles may be stale.
		c.releaseHandles()
		return nil, fmt.Errorf("BitBlt failed")
	}

	c.overlayCursor()

	ret, _, _ := procGetDIBits.Call(
		c.memDC, c.hBitmap, 0, uintptr(c.height),
		uintptr(unsafe.Pointer(&c.pixBuf[0])),
		uintptr(unsafe.Pointer(&c.bi)),
		dibRGBColors,
	)
	if ret == 0 {
		return nil, fmt.Errorf("GetDIBits failed")
	}

	img := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	bgraToRGBA(img.Pix, c.pixBuf)
	return img, nil
}

// overlayCursor draws the hardware cursor into the memory DC at
// screen position minus virtual-screen origin minus hotspot. BitBlt does
// not include the cursor.
func (c *gdiCapturer) overlayCursor() {
	var ci cursorInfoW
	ci.CbSize = uint32(unsafe.Sizeof(ci))
	ret, _, _ := procGetCursorInfo.Call(uintptr(unsafe.Pointer(&ci)))
	if ret == 0 || ci.Flags&cursorShowing == 0 || ci.HCursor == 0 {
		return
	}

	var ii iconInfoW
	ret, _, _ = procGetIconInfo.Call(ci.HCursor, uintptr(unsafe.Pointer(&ii)))
	if ret == 0 {
		return
	}

	cx := int(ci.PtScreenPos.X) - c.originX - int(ii.XHotspot)
	cy := int(ci.PtScreenPos.Y) - c.originY - int(ii.YHotspot)
	procDrawIconEx.Call(c.memDC, uintptr(cx), uintptr(cy), ci.HCursor, 0, 0, 0, 0, diNormal)

	// GetIconInfo hands us bitmap copies we must free.
	if ii.HbmMask != 0 {
		procDeleteObject.Call(ii.HbmMask)
	}
	if ii.HbmColor != 0 {
		procDeleteObject.Call(ii.HbmColor)
	}
}

func (c *gdiCapturer) Bounds() (int, int, error) {
	_, _, w, h := virtualScreenRect()
	if w == 0 || h == 0 {
		return 0, 0, fmt.Errorf("GetSystemMetrics returned zero virtual screen size")
	}
	return w, h, nil
}

func (c *gdiCapturer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseHandles()
	return nil
}
