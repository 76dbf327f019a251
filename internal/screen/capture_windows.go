//go:build windows

package screen

// NativeFallback returns nil; GDI capture has no external tool to fall back on.
func NativeFallback() Fallback {
	return nil
}
