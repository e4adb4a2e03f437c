package timecode

import "log/slog"

// Source feeds a channel timecode from outside the free-running counter,
// typically a producer that carries embedded timecode.
type Source interface {
	// Timecode returns the source's current stamp, Empty() when it has none.
	Timecode() FrameTimecode
	// HasTimecode reports whether the source currently carries a stamp.
	HasTimecode() bool
	// ProvidesTimecode reports whether the source can ever carry a stamp.
	ProvidesTimecode() bool
	String() string
}

// weakSource degrades gracefully when the underlying source goes away: it
// logs once and then behaves as absent, letting the channel fall back to
// free-run.
type weakSource struct {
	index  int
	get    func() Source
	logger *slog.Logger
	valid  bool
}

func newWeakSource(index int, get func() Source, logger *slog.Logger) *weakSource {
	return &weakSource{index: index, get: get, logger: logger, valid: true}
}

func (w *weakSource) resolve() Source {
	if !w.valid {
		return nil
	}
	src := w.get()
	if src == nil {
		w.logger.Warn("Lost timecode source", "channel", w.index)
		w.valid = false
	}
	return src
}

func (w *weakSource) Timecode() FrameTimecode {
	if src := w.resolve(); src != nil {
		return src.Timecode()
	}
	return Empty()
}

func (w *weakSource) HasTimecode() bool {
	if src := w.resolve(); src != nil {
		return src.HasTimecode()
	}
	return false
}

func (w *weakSource) ProvidesTimecode() bool {
	if src := w.resolve(); src != nil {
		return src.ProvidesTimecode()
	}
	return false
}

func (w *weakSource) String() string {
	if src := w.resolve(); src != nil {
		return src.String()
	}
	return "free"
}
