package stage

import (
	"github.com/castkit/playoutd/internal/core/frame"
	"github.com/castkit/playoutd/internal/monitor"
)

// layer is one slot in the stage: a foreground producer on air and an
// optional background producer staged for the next play.
type layer struct {
	foreground Producer
	background Producer

	// autoPlay, when set, promotes the background as soon as the foreground
	// runs out of frames.
	autoPlay bool

	paused    bool
	lastFrame frame.DrawFrame
	produced  int64
}

func newLayer() *layer {
	return &layer{
		foreground: EmptyProducer(),
		background: EmptyProducer(),
	}
}

func (l *layer) load(producer Producer, preview bool, autoPlay bool) {
	l.background = producer
	l.autoPlay = autoPlay
	if preview {
		l.play()
		l.paused = true
	}
}

func (l *layer) play() {
	if _, ok := l.background.(emptyProducer); !ok {
		l.foreground = l.background
		l.background = EmptyProducer()
		l.autoPlay = false
		l.lastFrame = frame.DrawFrame{}
		l.produced = 0
	}
	l.paused = false
}

func (l *layer) pause() {
	l.paused = true
}

func (l *layer) resume() {
	l.paused = false
}

func (l *layer) stop() {
	l.foreground = EmptyProducer()
	l.lastFrame = frame.DrawFrame{}
	l.paused = false
	l.produced = 0
}

// receive returns the layer's frame for this tick. A paused layer repeats
// its last frame; an ended foreground hands over to an auto-play background.
func (l *layer) receive(nbSamples int) frame.DrawFrame {
	if l.paused {
		return l.lastFrame
	}

	f := l.foreground.Receive(nbSamples)
	if f.Empty() && l.autoPlay {
		l.play()
		f = l.foreground.Receive(nbSamples)
	}

	if !f.Empty() {
		l.lastFrame = f
		l.produced++
	}
	return f
}

func (l *layer) state() monitor.State {
	s := monitor.State{
		"paused": l.paused,
		"frames": l.produced,
	}
	s.Assign("foreground", monitor.State{"producer": l.foreground.Name()})
	s.Assign("background", monitor.State{"producer": l.background.Name()})
	return s
}
