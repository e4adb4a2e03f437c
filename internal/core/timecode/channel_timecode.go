package timecode

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/castkit/playoutd/internal/core/format"
)

// ChannelTimecode stamps every frame a channel emits. Each tick the channel
// first calls Predict so producers can see the stamp their frame will carry,
// then Finalize to commit it. Between format changes, consecutive finalized
// stamps differ by exactly one frame.
type ChannelTimecode struct {
	mu sync.Mutex

	index  int
	format format.Descriptor
	logger *slog.Logger

	// anchor is the stamp of the last re-anchoring event; elapsed counts the
	// frames finalized since then.
	anchor  FrameTimecode
	elapsed uint32

	source      Source
	systemClock bool
}

// NewChannelTimecode creates a free-running timecode for a channel.
func NewChannelTimecode(index int, desc format.Descriptor, logger *slog.Logger) *ChannelTimecode {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChannelTimecode{
		index:  index,
		format: desc,
		logger: logger,
		anchor: NewFrameTimecode(0, fpsOf(desc)),
	}
}

func fpsOf(desc format.Descriptor) uint8 {
	return uint8(math.Round(desc.FPS()))
}

// Start anchors the timecode to the current wall clock time of day.
func (t *ChannelTimecode) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.anchorToClockLocked()
}

func (t *ChannelTimecode) anchorToClockLocked() {
	fps := fpsOf(t.format)
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	frames := uint32(now.Sub(midnight).Seconds() * float64(fps))
	t.anchor = NewFrameTimecode(frames, fps)
	t.elapsed = 0
}

// Predict returns the stamp the next finalized frame will carry, without
// committing it. Repeated calls without an intervening Finalize return the
// same value.
func (t *ChannelTimecode) Predict() FrameTimecode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.anchor.Add(int(t.elapsed) + 1)
}

// Finalize advances the timecode by one frame and returns the definitive
// stamp, equal to the preceding Predict. A live external source overrides
// the counter and re-anchors to the stamp it reports.
func (t *ChannelTimecode) Finalize() FrameTimecode {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.source != nil && t.source.HasTimecode() {
		tc := t.source.Timecode()
		if tc.IsValid() {
			t.anchor = tc.WithFPS(fpsOf(t.format))
			t.elapsed = 0
			return t.anchor
		}
		t.logger.Warn("Timecode update invalid, ignoring", "channel", t.index)
	}

	t.elapsed++
	return t.anchor.Add(int(t.elapsed))
}

// Timecode returns the last finalized stamp.
func (t *ChannelTimecode) Timecode() FrameTimecode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.anchor.Add(int(t.elapsed))
}

// SetTimecode jumps a free-running timecode to the given stamp. A channel
// driven by a source ignores the jump.
func (t *ChannelTimecode) SetTimecode(tc FrameTimecode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.isFreeLocked() {
		t.anchor = tc.WithFPS(fpsOf(t.format))
		t.elapsed = 0
	}
}

// ChangeFormat re-anchors the timecode in the new format's rate, preserving
// the time of day so a rate change never produces a discontinuous stamp.
func (t *ChannelTimecode) ChangeFormat(desc format.Descriptor) {
	t.mu.Lock()
	defer t.mu.Unlock()
	current := t.anchor.Add(int(t.elapsed))
	t.format = desc
	t.anchor = current.WithFPS(fpsOf(desc))
	t.elapsed = 0
}

// IsFree reports whether no external source is driving the timecode.
func (t *ChannelTimecode) IsFree() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.isFreeLocked()
}

func (t *ChannelTimecode) isFreeLocked() bool {
	return t.source == nil || !t.source.HasTimecode()
}

// SetSource drives the timecode from src. Returns false when the source can
// never provide timecode.
func (t *ChannelTimecode) SetSource(src Source) bool {
	if src == nil || !src.ProvidesTimecode() {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.source = src
	t.systemClock = false
	t.logger.Info("Loaded timecode source", "channel", t.index, "source", src.String())
	return true
}

// SetWeakSource drives the timecode from a source looked up on every use,
// falling back to free-run when the lookup starts returning nil.
func (t *ChannelTimecode) SetWeakSource(get func() Source) bool {
	src := get()
	if src == nil || !src.ProvidesTimecode() {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.source = newWeakSource(t.index, get, t.logger)
	t.systemClock = false
	t.logger.Info("Loaded timecode source", "channel", t.index, "source", src.String())
	return true
}

// ClearSource returns the timecode to free-run.
func (t *ChannelTimecode) ClearSource() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.source = nil
	t.systemClock = false
	t.logger.Info("Timecode set to freerun", "channel", t.index)
}

// SetSystemTime re-anchors to the wall clock and reports the clock as the
// source.
func (t *ChannelTimecode) SetSystemTime() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.source = nil
	t.systemClock = true
	t.anchorToClockLocked()
	t.logger.Info("Timecode set to system clock", "channel", t.index)
}

// SourceName names what anchors the timecode: a source, the system clock,
// or "free".
func (t *ChannelTimecode) SourceName() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.source != nil {
		return t.source.String()
	}
	if t.systemClock {
		return "clock"
	}
	return "free"
}
