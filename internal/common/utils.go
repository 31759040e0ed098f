// Package common contains small helpers shared across client layers.
package common

// WipeByteArray zeroes the buffer in place. Use it (typically via defer)
// on password material as soon as it is no longer needed.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
