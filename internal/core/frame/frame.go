// Package frame defines the frame types flowing through a channel: the
// immutable Frame produced by producers and emitted by the mixer, and the
// DrawFrame decoration tree the stage and mixer operate on.
package frame

import "github.com/castkit/playoutd/internal/core/format"

// Frame is a single video frame with its audio payload. Image holds packed
// BGRA pixels; Audio holds interleaved signed 32-bit samples. A Frame is
// immutable once handed out.
type Frame struct {
	Image  []byte
	Audio  []int32
	Width  int
	Height int

	// Tag identifies the producer that created the frame, for pooling and
	// diagnostics. May be nil.
	Tag any
}

// Empty reports whether the frame carries no image and no audio.
func (f *Frame) Empty() bool {
	return f == nil || (len(f.Image) == 0 && len(f.Audio) == 0)
}

// Factory creates frames sized for a format. The image mixer implements
// this so producers allocate frames the compositor can consume directly.
type Factory interface {
	CreateFrame(tag any, desc format.Descriptor, nbSamples int) *Frame
}
