package channel

import (
	"sync/atomic"

	"github.com/castkit/playoutd/internal/core/format"
	"github.com/castkit/playoutd/internal/core/frame"
)

const routeBuffer = 2

// Route is a fan-out tap on one layer or on the whole channel. The channel
// only holds a weak reference; whoever called Route owns it, and delivery
// stops once no owner remains.
type Route struct {
	name    string
	desc    format.Descriptor
	frames  chan frame.DrawFrame
	dropped atomic.Int64
}

func newRoute(name string, desc format.Descriptor) *Route {
	return &Route{
		name:   name,
		desc:   desc,
		frames: make(chan frame.DrawFrame, routeBuffer),
	}
}

// Name returns the route's human-readable name: "<channel>" for the whole
// channel, "<channel>/<layer>" for a layer tap.
func (r *Route) Name() string {
	return r.name
}

// Format returns the format the channel ran when the route was created.
func (r *Route) Format() format.Descriptor {
	return r.desc
}

// Frames returns the stream of tapped frames. Delivery is best effort; a
// subscriber that falls behind loses frames, not the channel.
func (r *Route) Frames() <-chan frame.DrawFrame {
	return r.frames
}

// Dropped returns how many frames were discarded because the subscriber
// fell behind.
func (r *Route) Dropped() int64 {
	return r.dropped.Load()
}

// signal delivers one frame without blocking the channel loop.
func (r *Route) signal(f frame.DrawFrame) {
	select {
	case r.frames <- f:
	default:
		r.dropped.Add(1)
	}
}
