// Package payload fills probe packets with random bytes, so that link-layer
// compression cannot shrink the stream and distort the measured rate.
package payload

import (
	"crypto/rand"
	"io"
)

// Filler produces the random filler bytes carried after the packet header.
type Filler struct {
	src io.Reader
}

// NewFiller returns a Filler backed by the operating system's random
// source.
func NewFiller() *Filler {
	return &Filler{src: rand.Reader}
}

// Fill overwrites buf completely with random bytes. A failure is fatal to
// the caller: a test cannot proceed without fillable payloads.
func (f *Filler) Fill(buf []byte) error {
	_, err := io.ReadFull(f.src, buf)
	return err
}
