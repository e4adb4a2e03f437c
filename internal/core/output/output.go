// Package output dispatches each finalized frame to the channel's
// consumers. Consumers buffer and pace on their own; a consumer that
// errors or panics loses that frame, the rest still receive it.
package output

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/castkit/playoutd/internal/core/format"
	"github.com/castkit/playoutd/internal/core/frame"
	"github.com/castkit/playoutd/internal/core/timecode"
	"github.com/castkit/playoutd/internal/diag"
	"github.com/castkit/playoutd/internal/monitor"
)

// Consumer is a pluggable frame sink. Send is called once per tick with
// the finalized timecode; implementations queue or drop per their own
// policy rather than block the loop.
type Consumer interface {
	Send(tc timecode.FrameTimecode, f *frame.Frame, desc format.Descriptor) error
	Name() string
	State() monitor.State
	Close() error
}

// Output fans the mixed frame out to a set of consumers keyed by port
// index.
type Output struct {
	channelIndex int
	graph        *diag.Graph
	logger       *slog.Logger

	mu        sync.Mutex
	consumers map[int]Consumer
	state     monitor.State

	// sendErrors counts failed sends across all consumers; written only on
	// the channel goroutine.
	sendErrors int64
}

// New creates an output with no consumers.
func New(channelIndex int, graph *diag.Graph, logger *slog.Logger) *Output {
	if logger == nil {
		logger = slog.Default()
	}
	return &Output{
		channelIndex: channelIndex,
		graph:        graph,
		logger:       logger.With("channel", channelIndex),
		consumers:    make(map[int]Consumer),
		state:        monitor.State{},
	}
}

// Add attaches a consumer at a port index, replacing and closing any
// previous occupant.
func (o *Output) Add(index int, c Consumer) {
	o.mu.Lock()
	prev := o.consumers[index]
	o.consumers[index] = c
	o.mu.Unlock()

	if prev != nil {
		if err := prev.Close(); err != nil {
			o.logger.Warn("Failed to close replaced consumer", "port", index, "error", err)
		}
	}
	o.logger.Info("Added consumer", "port", index, "consumer", c.Name())
}

// Remove detaches and closes the consumer at a port index.
func (o *Output) Remove(index int) {
	o.mu.Lock()
	c := o.consumers[index]
	delete(o.consumers, index)
	o.mu.Unlock()

	if c != nil {
		if err := c.Close(); err != nil {
			o.logger.Warn("Failed to close consumer", "port", index, "error", err)
		}
		o.logger.Info("Removed consumer", "port", index, "consumer", c.Name())
	}
}

// Consumer returns the consumer at a port index, nil when empty.
func (o *Output) Consumer(index int) Consumer {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.consumers[index]
}

// Ports returns the occupied port indexes in ascending order.
func (o *Output) Ports() []int {
	o.mu.Lock()
	defer o.mu.Unlock()
	ports := make([]int, 0, len(o.consumers))
	for index := range o.consumers {
		ports = append(ports, index)
	}
	sort.Ints(ports)
	return ports
}

// Push hands the frame to every consumer. A consumer that errors or
// panics loses this frame; the rest still receive it.
func (o *Output) Push(tc timecode.FrameTimecode, f *frame.Frame, desc format.Descriptor) {
	o.mu.Lock()
	snapshot := make(map[int]Consumer, len(o.consumers))
	for index, c := range o.consumers {
		snapshot[index] = c
	}
	o.mu.Unlock()

	state := monitor.State{}
	for index, c := range snapshot {
		if err := o.send(c, tc, f, desc); err != nil {
			o.sendErrors++
			o.logger.Error("Consumer send failed", "port", index, "consumer", c.Name(), "error", err)
		}
		state.Assign(fmt.Sprintf("port/%d", index), c.State())
	}
	state.Set("send-errors", o.sendErrors)
	o.mu.Lock()
	o.state = state
	o.mu.Unlock()
}

func (o *Output) send(c Consumer, tc timecode.FrameTimecode, f *frame.Frame, desc format.Descriptor) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("consumer panic: %v", r)
		}
	}()
	return c.Send(tc, f, desc)
}

// State returns the snapshot taken by the last push.
func (o *Output) State() monitor.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Copy()
}

// Close detaches and closes every consumer.
func (o *Output) Close() {
	o.mu.Lock()
	consumers := o.consumers
	o.consumers = make(map[int]Consumer)
	o.mu.Unlock()

	for index, c := range consumers {
		if err := c.Close(); err != nil {
			o.logger.Warn("Failed to close consumer", "port", index, "error", err)
		}
	}
}
