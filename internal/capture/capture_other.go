//go:build !windows

package capture

func newPlatformCapturer(config Config) (ScreenCapturer, error) {
	return nil, ErrNotSupported
}
