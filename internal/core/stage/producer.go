// Package stage holds a channel's layer map and drives each layer's
// producer once per tick. Mutations arrive from the control surface and are
// serialized with the tick.
package stage

import (
	"github.com/castkit/playoutd/internal/core/frame"
	"github.com/castkit/playoutd/internal/monitor"
)

// Producer is a pluggable frame source owned by a layer. Receive is called
// once per tick on the channel goroutine and must return promptly; a
// producer doing real work buffers on its own goroutines and hands over
// whatever is ready.
type Producer interface {
	// Receive returns the next frame together with nbSamples audio samples
	// per channel. An empty draw frame means the producer has ended.
	Receive(nbSamples int) frame.DrawFrame
	Name() string
	State() monitor.State
}

type emptyProducer struct{}

func (emptyProducer) Receive(int) frame.DrawFrame { return frame.DrawFrame{} }
func (emptyProducer) Name() string                { return "empty" }
func (emptyProducer) State() monitor.State {
	return monitor.State{"producer": "empty"}
}

// EmptyProducer returns the producer that produces nothing.
func EmptyProducer() Producer {
	return emptyProducer{}
}
