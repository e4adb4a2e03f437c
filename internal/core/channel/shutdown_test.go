package channel

import (
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/castkit/playoutd/internal/core/timecode"
	"github.com/castkit/playoutd/internal/diag"
)

func TestCloseStopsLoopWithoutLeaks(t *testing.T) {
	defer goleak.VerifyNone(t)

	ch := New(1, tinyFormat(25, 1), fakeImageMixer{}, nil, nil, discardLogger())

	// Let the loop run free for a moment.
	time.Sleep(10 * time.Millisecond)

	ch.Close()

	// Closing again is safe.
	ch.Close()
}

func TestCloseFinishesInFlightTick(t *testing.T) {
	gate := newGateConsumer()
	ch := New(1, tinyFormat(25, 1), fakeImageMixer{}, nil, nil, discardLogger())
	ch.Output().Add(0, gate)
	<-gate.entered

	before := len(gate.Stamps())

	done := make(chan struct{})
	go func() {
		ch.Close()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Close returned while a tick was still in flight")
	case <-time.After(20 * time.Millisecond):
	}

	// Release the parked Send; the tick completes and the loop exits.
	close(gate.quit)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not return after the tick finished")
	}

	if len(gate.Stamps()) < before {
		t.Error("in-flight tick should have completed")
	}
}

func TestListenerHandleAfterClose(t *testing.T) {
	ch := New(1, tinyFormat(25, 1), fakeImageMixer{}, nil, nil, discardLogger())
	handle := ch.AddTimecodeListener(func(timecode.FrameTimecode, *diag.Graph) {})
	ch.Close()

	// Releasing a handle after shutdown must not panic.
	handle.Close()
}
