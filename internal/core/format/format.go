// Package format describes the video formats a channel can run in: raster
// geometry, field mode, frame rate as an exact rational, and the audio
// cadence that keeps the long-run sample rate exact at fractional rates.
package format

import (
	"fmt"
	"strings"
)

// FieldMode describes how a frame's fields are laid out.
type FieldMode int

// Field mode constants.
const (
	Progressive FieldMode = iota
	Upper
	Lower
)

func (m FieldMode) String() string {
	switch m {
	case Upper:
		return "upper"
	case Lower:
		return "lower"
	default:
		return "progressive"
	}
}

// SampleRate is the audio sample rate all formats run at.
const SampleRate = 48000

// AudioChannels is the channel count of the mixed audio buffer.
const AudioChannels = 2

// Descriptor is an immutable description of a video format. The zero value
// is invalid; use New or a registry entry.
type Descriptor struct {
	Name      string
	Width     int
	Height    int
	FieldMode FieldMode

	// TimeScale/Duration is the exact frame rate, e.g. 30000/1001.
	TimeScale int
	Duration  int

	// AudioCadence is the repeating per-frame sample count sequence whose
	// mean equals SampleRate * Duration / TimeScale.
	AudioCadence []int
}

// FPS returns the nominal frame rate as a float.
func (d Descriptor) FPS() float64 {
	if d.Duration == 0 {
		return 0
	}
	return float64(d.TimeScale) / float64(d.Duration)
}

// IsValid reports whether the descriptor describes a usable format.
func (d Descriptor) IsValid() bool {
	return d.Width > 0 && d.Height > 0 && d.TimeScale > 0 && d.Duration > 0 && len(d.AudioCadence) > 0
}

func (d Descriptor) String() string {
	return d.Name
}

// New builds a descriptor with the cadence derived from the frame rate.
func New(name string, width, height int, fieldMode FieldMode, timeScale, duration int) Descriptor {
	return Descriptor{
		Name:         name,
		Width:        width,
		Height:       height,
		FieldMode:    fieldMode,
		TimeScale:    timeScale,
		Duration:     duration,
		AudioCadence: Cadence(SampleRate, timeScale, duration),
	}
}

// Cadence distributes sampleRate over the frame rate timeScale/duration as
// the shortest repeating sequence of per-frame sample counts whose sum is
// exact. Integer rates yield a single element; NTSC-family rates yield the
// usual five-element pattern.
func Cadence(sampleRate, timeScale, duration int) []int {
	// Samples per frame is sampleRate*duration/timeScale. The period is the
	// smallest n for which n*sampleRate*duration is divisible by timeScale.
	num := sampleRate * duration
	period := timeScale / gcd(num, timeScale)
	if period == 0 {
		return nil
	}

	cadence := make([]int, period)
	prev := 0
	for i := 1; i <= period; i++ {
		next := i * num / timeScale
		cadence[i-1] = next - prev
		prev = next
	}
	return cadence
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

var registry = []Descriptor{
	New("PAL", 720, 576, Upper, 25, 1),
	New("NTSC", 720, 486, Lower, 30000, 1001),
	New("576p2500", 720, 576, Progressive, 25, 1),
	New("720p2500", 1280, 720, Progressive, 25, 1),
	New("720p5000", 1280, 720, Progressive, 50, 1),
	New("720p2398", 1280, 720, Progressive, 24000, 1001),
	New("720p2400", 1280, 720, Progressive, 24, 1),
	New("720p2997", 1280, 720, Progressive, 30000, 1001),
	New("720p5994", 1280, 720, Progressive, 60000, 1001),
	New("720p3000", 1280, 720, Progressive, 30, 1),
	New("720p6000", 1280, 720, Progressive, 60, 1),
	New("1080i5000", 1920, 1080, Upper, 25, 1),
	New("1080i5994", 1920, 1080, Upper, 30000, 1001),
	New("1080i6000", 1920, 1080, Upper, 30, 1),
	New("1080p2398", 1920, 1080, Progressive, 24000, 1001),
	New("1080p2400", 1920, 1080, Progressive, 24, 1),
	New("1080p2500", 1920, 1080, Progressive, 25, 1),
	New("1080p2997", 1920, 1080, Progressive, 30000, 1001),
	New("1080p3000", 1920, 1080, Progressive, 30, 1),
	New("1080p5000", 1920, 1080, Progressive, 50, 1),
	New("1080p5994", 1920, 1080, Progressive, 60000, 1001),
	New("1080p6000", 1920, 1080, Progressive, 60, 1),
	New("2160p2398", 3840, 2160, Progressive, 24000, 1001),
	New("2160p2400", 3840, 2160, Progressive, 24, 1),
	New("2160p2500", 3840, 2160, Progressive, 25, 1),
	New("2160p2997", 3840, 2160, Progressive, 30000, 1001),
	New("2160p3000", 3840, 2160, Progressive, 30, 1),
	New("2160p5000", 3840, 2160, Progressive, 50, 1),
	New("2160p5994", 3840, 2160, Progressive, 60000, 1001),
	New("2160p6000", 3840, 2160, Progressive, 60, 1),
}

// Lookup returns the registered descriptor with the given name,
// case-insensitively.
func Lookup(name string) (Descriptor, error) {
	for _, d := range registry {
		if strings.EqualFold(d.Name, name) {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("unknown video format %q", name)
}

// All returns every registered descriptor.
func All() []Descriptor {
	out := make([]Descriptor, len(registry))
	copy(out, registry)
	return out
}
