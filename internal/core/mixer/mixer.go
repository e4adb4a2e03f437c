// Package mixer flattens the stage's per-layer frames into the single
// frame a tick emits: video through the injected image mixer, audio by
// summing per-layer buffers under their transform volumes.
package mixer

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/castkit/playoutd/internal/core/format"
	"github.com/castkit/playoutd/internal/core/frame"
	"github.com/castkit/playoutd/internal/diag"
	"github.com/castkit/playoutd/internal/monitor"
)

// ImageMixer composites draw frames into one raster. The engine does not
// know how to composite; implementations are injected at channel
// construction and double as the frame factory producers allocate from.
type ImageMixer interface {
	frame.Factory

	// MixImage composites the frames, given in paint order, into a packed
	// BGRA raster of the format's geometry.
	MixImage(frames []frame.DrawFrame, desc format.Descriptor) []byte
}

// Mixer is stateless with respect to frames; it holds only the injected
// image mixer and its last state snapshot.
type Mixer struct {
	channelIndex int
	graph        *diag.Graph
	imageMixer   ImageMixer
	logger       *slog.Logger

	state monitor.State
}

// New creates a mixer for a channel.
func New(channelIndex int, graph *diag.Graph, imageMixer ImageMixer, logger *slog.Logger) *Mixer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mixer{
		channelIndex: channelIndex,
		graph:        graph,
		imageMixer:   imageMixer,
		logger:       logger.With("channel", channelIndex),
		state:        monitor.State{},
	}
}

// Mix composites the stage's frames in ascending layer order and mixes
// nbSamples audio samples per channel. The caller passes the cadence
// baseline, not the rotated per-tick count.
func (m *Mixer) Mix(frames map[int]frame.DrawFrame, desc format.Descriptor, nbSamples int) *frame.Frame {
	indexes := make([]int, 0, len(frames))
	for index := range frames {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)

	ordered := make([]frame.DrawFrame, 0, len(frames))
	for _, index := range indexes {
		ordered = append(ordered, frames[index])
	}

	image := m.imageMixer.MixImage(ordered, desc)
	audio, peak := mixAudio(ordered, nbSamples)

	if peak >= 1.0 && m.graph != nil {
		m.graph.SetTag("audio-clipping")
	}

	m.state = monitor.State{
		"nb_layers": len(ordered),
	}
	m.state.Assign("audio", monitor.State{
		"peak":       peak,
		"nb_samples": nbSamples,
	})

	return &frame.Frame{
		Image:  image,
		Audio:  audio,
		Width:  desc.Width,
		Height: desc.Height,
		Tag:    fmt.Sprintf("mixer-%d", m.channelIndex),
	}
}

// State returns the snapshot taken by the last mix.
func (m *Mixer) State() monitor.State {
	return m.state.Copy()
}

// mixAudio sums the layers' interleaved samples under their accumulated
// transform volumes, clamping into int32 range. Short layer buffers
// contribute silence for the missing tail.
func mixAudio(frames []frame.DrawFrame, nbSamples int) ([]int32, float64) {
	total := nbSamples * format.AudioChannels
	acc := make([]int64, total)

	for _, df := range frames {
		df.Walk(func(f *frame.Frame, t frame.Transform) {
			volume := t.Audio.Volume
			n := len(f.Audio)
			if n > total {
				n = total
			}
			for i := 0; i < n; i++ {
				acc[i] += int64(float64(f.Audio[i]) * volume)
			}
		})
	}

	out := make([]int32, total)
	var peak int64
	for i, v := range acc {
		if v > maxSample {
			v = maxSample
		} else if v < minSample {
			v = minSample
		}
		out[i] = int32(v)
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}

	return out, float64(peak) / float64(maxSample)
}

const (
	maxSample = int64(1<<31 - 1)
	minSample = -maxSample - 1
)
