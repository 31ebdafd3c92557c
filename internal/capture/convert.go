package capture

// bgraToRGBA swaps the B and R channels in place of a copy. Both slices
// must be the same length and a multiple of 4.
func bgraToRGBA(dst, src []byte) {
	n := len(src)
	if len(dst) < n {
		n = len(dst)
	}
	for i := 0; i+3 < n; i += 4 {
		dst[i] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i]
		dst[i+3] = 0xFF
	}
}
