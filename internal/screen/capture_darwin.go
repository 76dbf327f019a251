//go:build darwin

package screen

// NativeFallback returns the screencapture CLI fallback.
func NativeFallback() Fallback {
	return NewCommandFallback("screencapture", ScreencaptureArgs, nil)
}
