package channel

import (
	"sync"

	"github.com/castkit/playoutd/internal/core/timecode"
	"github.com/castkit/playoutd/internal/diag"
)

// TimecodeListener observes every finalized stamp, between finalize and
// mix. A listener that schedules work for the stamp it sees is guaranteed
// to run before the next tick's produce step.
type TimecodeListener func(tc timecode.FrameTimecode, graph *diag.Graph)

// ListenerHandle scopes a listener registration. Closing it removes the
// listener; the removal is effective no later than the next tick.
type ListenerHandle struct {
	once    sync.Once
	release func()
}

// Close removes the listener. Safe to call more than once.
func (h *ListenerHandle) Close() {
	h.once.Do(h.release)
}
