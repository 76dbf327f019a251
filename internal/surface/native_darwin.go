//go:build darwin

package surface

import "io"

// NewNative returns AppleScript dialogs.
func NewNative(_ io.Writer, _ io.Reader) Surface {
	return NewDialogs(nil)
}
