// Package timecode implements frame-precision timecodes: the FrameTimecode
// value type with SMPTE arithmetic, and the per-channel ChannelTimecode
// that predicts and finalizes one stamp per tick.
package timecode

import (
	"fmt"
	"strconv"
	"strings"
)

const secondsPerDay = 24 * 60 * 60

// MaxFramesForFPS returns the frame count at which a timecode wraps back
// to zero (24 hours).
func MaxFramesForFPS(fps uint8) uint32 {
	return uint32(secondsPerDay) * uint32(fps)
}

func validateFrames(frames uint32, fps uint8) uint32 {
	maxFrames := MaxFramesForFPS(fps)
	if maxFrames == 0 {
		return 0
	}
	if frames >= maxFrames {
		frames -= maxFrames
	}
	return frames
}

// FrameTimecode is a frame count within a 24-hour day at a given nominal
// frame rate. The zero value is the invalid (empty) timecode.
type FrameTimecode struct {
	frames uint32
	fps    uint8
}

// NewFrameTimecode builds a timecode, wrapping the frame count at 24 hours.
func NewFrameTimecode(frames uint32, fps uint8) FrameTimecode {
	return FrameTimecode{frames: validateFrames(frames, fps), fps: fps}
}

// Empty returns the invalid timecode.
func Empty() FrameTimecode {
	return FrameTimecode{}
}

// IsValid reports whether the timecode carries a usable rate.
func (t FrameTimecode) IsValid() bool {
	return t.fps > 0
}

// TotalFrames returns the frame count since midnight.
func (t FrameTimecode) TotalFrames() uint32 {
	return t.frames
}

// FPS returns the nominal rate the frame count is expressed in.
func (t FrameTimecode) FPS() uint8 {
	return t.fps
}

// MaxFrames returns the wraparound point for this timecode's rate.
func (t FrameTimecode) MaxFrames() uint32 {
	return MaxFramesForFPS(t.fps)
}

// Components splits the timecode into hours, minutes, seconds and frames.
// With smpteFrames set, rates above 30 report frame pairs, as SMPTE
// notation has no field for the second frame of a pair.
func (t FrameTimecode) Components(smpteFrames bool) (hours, minutes, seconds, frames uint8) {
	if t.fps == 0 {
		return
	}

	total := t.frames

	frames = uint8(total % uint32(t.fps))
	if smpteFrames && t.fps > 30 {
		frames /= 2
	}
	total /= uint32(t.fps)

	seconds = uint8(total % 60)
	total /= 60

	minutes = uint8(total % 60)
	total /= 60

	hours = uint8(total % 24)
	return
}

// BCD packs the timecode as 8 binary-coded-decimal digits, most significant
// byte first, the layout ancillary data and VITC carry.
func (t FrameTimecode) BCD() uint32 {
	hours, minutes, seconds, frames := t.Components(true)

	var res uint32
	res += uint32(hours/10)<<4 + uint32(hours%10)
	res <<= 8
	res += uint32(minutes/10)<<4 + uint32(minutes%10)
	res <<= 8
	res += uint32(seconds/10)<<4 + uint32(seconds%10)
	res <<= 8
	res += uint32(frames/10)<<4 + uint32(frames%10)

	return res
}

// PTS returns the timecode as milliseconds since midnight.
func (t FrameTimecode) PTS() int64 {
	if t.fps == 0 {
		return 0
	}
	return int64(t.frames) * 1000 / int64(t.fps)
}

// String renders the timecode in SMPTE HH:MM:SS:FF form.
func (t FrameTimecode) String() string {
	hours, minutes, seconds, frames := t.Components(true)
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, seconds, frames)
}

// Before reports whether t is earlier in the day than other.
func (t FrameTimecode) Before(other FrameTimecode) bool {
	return t.PTS() < other.PTS()
}

// Equal reports value equality including rate.
func (t FrameTimecode) Equal(other FrameTimecode) bool {
	return t.PTS() == other.PTS() && t.fps == other.fps
}

// Add returns the timecode delta frames later, wrapping at 24 hours.
// Negative deltas move backwards.
func (t FrameTimecode) Add(delta int) FrameTimecode {
	maxFrames := int64(t.MaxFrames())
	if maxFrames == 0 {
		return t
	}
	val := (int64(t.frames) + int64(delta)) % maxFrames
	if val < 0 {
		val += maxFrames
	}
	return FrameTimecode{frames: uint32(val), fps: t.fps}
}

// Sub returns the timecode delta frames earlier.
func (t FrameTimecode) Sub(delta int) FrameTimecode {
	return t.Add(-delta)
}

// WithFPS rescales the timecode to a new rate, preserving the time of day.
func (t FrameTimecode) WithFPS(fps uint8) FrameTimecode {
	if fps == t.fps {
		return t
	}
	frames := t.PTS() * int64(fps) / 1000
	return NewFrameTimecode(uint32(frames), fps)
}

// Parse reads a SMPTE HH:MM:SS:FF string at the given rate. Any of ":.;,"
// separate the fields.
func Parse(s string, fps uint8) (FrameTimecode, error) {
	if len(s) != 11 {
		return Empty(), fmt.Errorf("timecode %q: want HH:MM:SS:FF", s)
	}

	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ':' || r == '.' || r == ';' || r == ','
	})
	if len(parts) != 4 {
		return Empty(), fmt.Errorf("timecode %q: want 4 fields", s)
	}

	nums := make([]uint8, 4)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Empty(), fmt.Errorf("timecode %q: %w", s, err)
		}
		nums[i] = uint8(n)
	}

	frames := nums[3]
	// SMPTE notation counts frame pairs above 30 fps.
	if fps > 30 {
		frames *= 2
	}

	return FromComponents(nums[0], nums[1], nums[2], frames, fps)
}

// FromComponents builds a timecode from wall-clock components.
func FromComponents(hours, minutes, seconds, frames, fps uint8) (FrameTimecode, error) {
	if hours > 23 || minutes > 59 || seconds > 59 || frames > fps {
		return Empty(), fmt.Errorf("timecode out of range: %02d:%02d:%02d:%02d@%d", hours, minutes, seconds, frames, fps)
	}

	total := uint32(hours)
	total *= 60
	total += uint32(minutes)
	total *= 60
	total += uint32(seconds)
	total *= uint32(fps)
	total += uint32(frames)

	return NewFrameTimecode(total, fps), nil
}
