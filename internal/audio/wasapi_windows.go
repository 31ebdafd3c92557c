//go:build windows

package audio

import (
	"fmt"
	"runtime"
	"sync"
	"syscall"
	"time"
	"unsafe"

	ole "github.com/go-ole/go-ole"

	"github.com/lanscr/lanscr/internal/logging"
)

var log = logging.L("audio")

// WASAPI COM class/interface ids.
var (
	clsidMMDeviceEnumerator = ole.NewGUID("{BCDE0395-E52F-467C-8E3D-C4579291692E}")
	iidIMMDeviceEnumerator  = ole.NewGUID("{A95664D2-9614-4F35-A746-DE8DB63617E6}")
	iidIAudioClient         = ole.NewGUID("{1CB9AD4C-DBFA-4C32-B178-C2F568A703B2}")
	iidIAudioCaptureClient  = ole.NewGUID("{C8ADBD64-E71E-48A0-A4DE-185C395CD317}")

	subtypePCM       = ole.NewGUID("{00000001-0000-0010-8000-00AA00389B71}")
	subtypeIEEEFloat = ole.NewGUID("{00000003-0000-0010-8000-00AA00389B71}")
)

const (
	eRender  = 0
	eConsole = 0

	audclntShareModeShared = 0
	audclntStreamLoopback  = 0x00020000
	audclntBufferSilent    = 0x2

	waveFormatPCM        = 0x0001
	waveFormatIEEEFloat  = 0x0003
	waveFormatExtensible = 0xFFFE

	clsctxAll = 0x1 | 0x2 | 0x4 | 0x10

	// COM vtable indices (IUnknown = 0,1,2; interface methods start at 3)
	mmdeGetDefaultAudioEndpoint  = 4  // IMMDeviceEnumerator::GetDefaultAudioEndpoint
	mmDeviceActivate             = 3  // IMMDevice::Activate
	audioClientInitialize        = 3  // IAudioClient::Initialize
	audioClientGetMixFormat      = 8  // IAudioClient::GetMixFormat
	audioClientStart             = 10 // IAudioClient::Start
	audioClientStop              = 11 // IAudioClient::Stop
	audioClientGetService        = 14 // IAudioClient::GetService
	capClientGetBuffer           = 3  // IAudioCaptureClient::GetBuffer
	capClientReleaseBuffer       = 4  // IAudioCaptureClient::ReleaseBuffer
	capClientGetNextPacketSize   = 5  // IAudioCaptureClient::GetNextPacketSize
)

// WAVEFORMATEX layout.
type waveFormatEx struct {
	FormatTag      uint16
	Channels       uint16
	SamplesPerSec  uint32
	AvgBytesPerSec uint32
	BlockAlign     uint16
	BitsPerSample  uint16
	CbSize         uint16
}

// WAVEFORMATEXTENSIBLE tail following waveFormatEx.
type waveFormatExtensibleTail struct {
	ValidBitsPerSample uint16
	ChannelMask        uint32
	SubFormat          ole.GUID
}

var (
	ole32                = syscall.NewLazyDLL("ole32.dll")
	procCoCreateInstance = ole32.NewProc("CoCreateInstance")
)

// comCall invokes a COM vtable method at the given index.
func comCall(obj uintptr, vtableIdx int, args ...uintptr) (uintptr, error) {
	vtablePtr := *(*uintptr)(unsafe.Pointer(obj))
	fnPtr := *(*uintptr)(unsafe.Pointer(vtablePtr + uintptr(vtableIdx)*unsafe.Sizeof(uintptr(0))))

	allArgs := make([]uintptr, 0, 1+len(args))
	allArgs = append(allArgs, obj)
	allArgs = append(allArgs, args...)
	ret, _, _ := syscall.SyscallN(fnPtr, allArgs...)

	if int32(ret) < 0 {
		return ret, fmt.Errorf("COM vtable[%d] HRESULT 0x%08X", vtableIdx, uint32(ret))
	}
	return ret, nil
}

// comRelease calls IUnknown::Release (vtable index 2).
func comRelease(obj uintptr) {
	if obj != 0 {
		vtablePtr := *(*uintptr)(unsafe.Pointer(obj))
		fnPtr := *(*uintptr)(unsafe.Pointer(vtablePtr + 2*unsafe.Sizeof(uintptr(0))))
		syscall.SyscallN(fnPtr, obj)
	}
}

// wasapiLoopback pulls loopback packets on a dedicated COM-locked goroutine
// and hands them out through a channel so ReadPacket never blocks.
type wasapiLoopback struct {
	format Format

	packets chan Packet
	done    chan struct{}
	wg      sync.WaitGroup

	closeOnce sync.Once
}

func newPlatformLoopback() (LoopbackSource, error) {
	w := &wasapiLoopback{
		packets: make(chan Packet, 32),
		done:    make(chan struct{}),
	}

	formatCh := make(chan Format, 1)
	errCh := make(chan error, 1)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.captureThread(formatCh, errCh)
	}()

	select {
	case err := <-errCh:
		w.wg.Wait()
		return nil, err
	case f := <-formatCh:
		w.format = f
		return w, nil
	}
}

// captureThread owns every COM object for the session lifetime. WASAPI
// shared-mode loopback requires the mix format and a single apartment.
func (w *wasapiLoopback) captureThread(formatCh chan<- Format, errCh chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED); err != nil {
		// S_FALSE (already initialized on this thread) is fine.
		if oleErr, ok := err.(*ole.OleError); !ok || oleErr.Code() != 1 {
			errCh <- fmt.Errorf("CoInitializeEx: %w", err)
			return
		}
	}
	defer ole.CoUninitialize()

	var enumerator uintptr
	hr, _, _ := procCoCreateInstance.Call(
		uintptr(unsafe.Pointer(clsidMMDeviceEnumerator)),
		0,
		clsctxAll,
		uintptr(unsafe.Pointer(iidIMMDeviceEnumerator)),
		uintptr(unsafe.Pointer(&enumerator)),
	)
	if int32(hr) < 0 {
		errCh <- fmt.Errorf("CoCreateInstance MMDeviceEnumerator: 0x%08X", uint32(hr))
		return
	}
	defer comRelease(enumerator)

	var device uintptr
	if _, err := comCall(enumerator, mmdeGetDefaultAudioEndpoint,
		eRender, eConsole, uintptr(unsafe.Pointer(&device))); err != nil {
		errCh <- fmt.Errorf("GetDefaultAudioEndpoint: %w", err)
		return
	}
	defer comRelease(device)

	var audioClient uintptr
	if _, err := comCall(device, mmDeviceActivate,
		uintptr(unsafe.Pointer(iidIAudioClient)), clsctxAll, 0,
		uintptr(unsafe.Pointer(&audioClient))); err != nil {
		errCh <- fmt.Errorf("Activate IAudioClient: %w", err)
		return
	}
	defer comRelease(audioClient)

	var mixPtr uintptr
	if _, err := comCall(audioClient, audioClientGetMixFormat,
		uintptr(unsafe.Pointer(&mixPtr))); err != nil {
		errCh <- fmt.Errorf("GetMixFormat: %w", err)
		return
	}

	mix := *(*waveFormatEx)(unsafe.Pointer(mixPtr))
	format := resolveFormat(mixPtr, mix)

	log.Info("WASAPI mix format",
		"channels", mix.Channels,
		"sampleRate", mix.SamplesPerSec,
		"bitsPerSample", mix.BitsPerSample,
		"formatTag", mix.FormatTag,
	)

	// Shared-mode loopback must use the mix format; 1 s buffer like the
	// streamer this replaces. Initialize consumes the COM memory, free after.
	const hnsBuffer = 10_000_000
	_, initErr := comCall(audioClient, audioClientInitialize,
		audclntShareModeShared,
		audclntStreamLoopback,
		hnsBuffer,
		0,
		mixPtr,
		0,
	)
	ole.CoTaskMemFree(mixPtr)
	if initErr != nil {
		errCh <- fmt.Errorf("IAudioClient.Initialize: %w", initErr)
		return
	}

	var captureClient uintptr
	if _, err := comCall(audioClient, audioClientGetService,
		uintptr(unsafe.Pointer(iidIAudioCaptureClient)),
		uintptr(unsafe.Pointer(&captureClient))); err != nil {
		errCh <- fmt.Errorf("GetService IAudioCaptureClient: %w", err)
		return
	}
	defer comRelease(captureClient)

	if _, err := comCall(audioClient, audioClientStart); err != nil {
		errCh <- fmt.Errorf("IAudioClient.Start: %w", err)
		return
	}
	defer comCall(audioClient, audioClientStop)

	formatCh <- format

	bytesPerFrame := int(mix.BlockAlign)
	w.pullLoop(captureClient, bytesPerFrame)
}

func (w *wasapiLoopback) pullLoop(captureClient uintptr, bytesPerFrame int) {
	for {
		select {
		case <-w.done:
			return
		default:
		}

		var packetFrames uint32
		if _, err := comCall(captureClient, capClientGetNextPacketSize,
			uintptr(unsafe.Pointer(&packetFrames))); err != nil {
			log.Warn("GetNextPacketSize failed, stopping capture", "error", err)
			return
		}
		if packetFrames == 0 {
			time.Sleep(5 * time.Millisecond)
			continue
		}

		var dataPtr uintptr
		var frames uint32
		var flags uint32
		if _, err := comCall(captureClient, capClientGetBuffer,
			uintptr(unsafe.Pointer(&dataPtr)),
			uintptr(unsafe.Pointer(&frames)),
			uintptr(unsafe.Pointer(&flags)),
			0, 0); err != nil {
			log.Warn("GetBuffer failed, stopping capture", "error", err)
			return
		}

		pkt := Packet{
			Frames: int(frames),
			Silent: flags&audclntBufferSilent != 0,
		}
		if dataPtr != 0 && frames > 0 {
			raw := unsafe.Slice((*byte)(unsafe.Pointer(dataPtr)), int(frames)*bytesPerFrame)
			pkt.Data = make([]byte, len(raw))
			copy(pkt.Data, raw)
		}

		comCall(captureClient, capClientReleaseBuffer, uintptr(frames))

		select {
		case w.packets <- pkt:
		case <-w.done:
			return
		default:
			// Consumer stalled; drop the oldest pending packet.
			select {
			case <-w.packets:
			default:
			}
			select {
			case w.packets <- pkt:
			default:
			}
		}
	}
}

// resolveFormat maps the mix format (including WAVEFORMATEXTENSIBLE
// subformats) to an Encoding. Unrecognized formats degrade to silence.
func resolveFormat(mixPtr uintptr, mix waveFormatEx) Format {
	f := Format{
		Channels:   int(mix.Channels),
		SampleRate: int(mix.SamplesPerSec),
		Encoding:   EncodingUnknown,
	}
	if f.Channels == 0 {
		f.Channels = 2
	}
	if f.SampleRate == 0 {
		f.SampleRate = 48000
	}

	switch mix.FormatTag {
	case waveFormatIEEEFloat:
		f.Encoding = EncodingFloat32
	case waveFormatPCM:
		if mix.BitsPerSample == 16 {
			f.Encoding = EncodingPCM16
		}
	case waveFormatExtensible:
		if mix.CbSize >= 22 {
			tail := (*waveFormatExtensibleTail)(unsafe.Pointer(mixPtr + unsafe.Sizeof(waveFormatEx{})))
			if ole.IsEqualGUID(&tail.SubFormat, subtypeIEEEFloat) {
				f.Encoding = EncodingFloat32
			} else if ole.IsEqualGUID(&tail.SubFormat, subtypePCM) && mix.BitsPerSample == 16 {
				f.Encoding = EncodingPCM16
			}
		}
	}
	return f
}

func (w *wasapiLoopback) Format() Format {
	return w.format
}

func (w *wasapiLoopback) ReadPacket() (Packet, error) {
	select {
	case pkt := <-w.packets:
		return pkt, nil
	case <-w.done:
		return Packet{}, fmt.Errorf("loopback source closed")
	default:
		return Packet{}, nil
	}
}

func (w *wasapiLoopback) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
	})
	w.wg.Wait()
	return nil
}
