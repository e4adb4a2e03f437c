package stage

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/castkit/playoutd/internal/core/format"
	"github.com/castkit/playoutd/internal/core/frame"
	"github.com/castkit/playoutd/internal/monitor"
)

// Stage owns the ordered layer map of one channel. The channel loop calls
// Tick once per frame; everything else is control-surface mutation. One
// mutex serializes both, so a mutation lands either before or after a tick,
// never inside it.
type Stage struct {
	channelIndex int
	logger       *slog.Logger

	mu     sync.Mutex
	layers map[int]*layer
	tweens map[int]*tweenedTransform
	state  monitor.State
}

// New creates an empty stage for a channel.
func New(channelIndex int, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stage{
		channelIndex: channelIndex,
		logger:       logger.With("channel", channelIndex),
		layers:       make(map[int]*layer),
		tweens:       make(map[int]*tweenedTransform),
		state:        monitor.State{},
	}
}

func (s *Stage) getLayerLocked(index int) *layer {
	l, ok := s.layers[index]
	if !ok {
		l = newLayer()
		s.layers[index] = l
	}
	return l
}

// Tick advances every tween by one frame and collects one frame per layer.
// Frames come back keyed by layer id; iterate with sorted keys where order
// matters. A producer failure clears the stage and yields an empty map
// rather than failing the tick.
func (s *Stage) Tick(desc format.Descriptor, nbSamples int) map[int]frame.DrawFrame {
	s.mu.Lock()
	defer s.mu.Unlock()

	frames := make(map[int]frame.DrawFrame, len(s.layers))

	defer func() {
		if r := recover(); r != nil {
			s.layers = make(map[int]*layer)
			s.logger.Error("Stage tick failed, clearing layers", "error", fmt.Sprint(r))
		}
	}()

	for _, t := range s.tweens {
		t.tick(1)
	}

	for index, l := range s.layers {
		tween, ok := s.tweens[index]
		if !ok {
			tween = newTweenedTransform(frame.IdentityTransform(), frame.IdentityTransform(), 0, nil)
			s.tweens[index] = tween
		}
		frames[index] = frame.Push(l.receive(nbSamples), tween.fetch())
	}

	s.state = monitor.State{}
	for index, l := range s.layers {
		s.state.Assign(fmt.Sprintf("layer/%d", index), l.state())
	}

	return frames
}

// State returns the snapshot taken by the last tick.
func (s *Stage) State() monitor.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Copy()
}

// Load stages a producer on a layer's background. With preview set the
// producer is promoted immediately and paused before it produces any
// frame, so the layer yields an empty frame until resumed; with autoPlay
// set it starts when the current foreground ends.
func (s *Stage) Load(index int, producer Producer, preview, autoPlay bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getLayerLocked(index).load(producer, preview, autoPlay)
	s.logger.Info("Loaded producer", "layer", index, "producer", producer.Name())
}

// Play promotes a layer's background producer to the foreground.
func (s *Stage) Play(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getLayerLocked(index).play()
}

// Pause freezes a layer on its current frame.
func (s *Stage) Pause(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getLayerLocked(index).pause()
}

// Resume unfreezes a paused layer.
func (s *Stage) Resume(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getLayerLocked(index).resume()
}

// Stop removes a layer's foreground producer but keeps the layer.
func (s *Stage) Stop(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getLayerLocked(index).stop()
}

// ClearLayer removes a layer entirely.
func (s *Stage) ClearLayer(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.layers, index)
	delete(s.tweens, index)
}

// Clear removes every layer, as happens on a format change.
func (s *Stage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers = make(map[int]*layer)
	s.tweens = make(map[int]*tweenedTransform)
}

// SwapLayers exchanges the layer maps of two stages, for channel swaps.
// Transforms follow the layers when swapTransforms is set.
func (s *Stage) SwapLayers(other *Stage, swapTransforms bool) {
	if s == other {
		return
	}

	// Lock ordering by channel index keeps cross-channel swaps deadlock
	// free.
	first, second := s, other
	if first.channelIndex > second.channelIndex {
		first, second = second, first
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	s.layers, other.layers = other.layers, s.layers
	if swapTransforms {
		s.tweens, other.tweens = other.tweens, s.tweens
	}
}

// ApplyTransform retargets a layer's transform, tweening from its current
// value to the result of transform over duration frames.
func (s *Stage) ApplyTransform(index int, transform func(frame.Transform) frame.Transform, duration int, tween Tweener) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := frame.IdentityTransform()
	dst := frame.IdentityTransform()
	if t, ok := s.tweens[index]; ok {
		current = t.fetch()
		dst = t.dest()
	}
	s.tweens[index] = newTweenedTransform(current, transform(dst), duration, tween)
}

// CurrentTransform returns the transform a layer is rendered with right now.
func (s *Stage) CurrentTransform(index int) frame.Transform {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tweens[index]; ok {
		return t.fetch()
	}
	return frame.IdentityTransform()
}

// ClearTransforms resets every layer transform to identity.
func (s *Stage) ClearTransforms() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tweens = make(map[int]*tweenedTransform)
}

// ClearTransform resets one layer's transform.
func (s *Stage) ClearTransform(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tweens, index)
}

// LayerIndexes returns the populated layer ids in ascending order.
func (s *Stage) LayerIndexes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	indexes := make([]int, 0, len(s.layers))
	for index := range s.layers {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)
	return indexes
}
