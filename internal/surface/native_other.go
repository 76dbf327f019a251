//go:build !darwin

package surface

import "io"

// NewNative falls back to the console where AppleScript is unavailable.
func NewNative(out io.Writer, in io.Reader) Surface {
	return NewConsole(out, in)
}
