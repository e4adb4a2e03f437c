// Package channel implements the realtime engine driver: one goroutine per
// channel runs produce, mix and consume once per frame, stamps the result
// with a predicted-then-finalized timecode, feeds fan-out routes, and
// publishes telemetry.
package channel

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"
	"weak"

	"github.com/castkit/playoutd/internal/core/format"
	"github.com/castkit/playoutd/internal/core/frame"
	"github.com/castkit/playoutd/internal/core/mixer"
	"github.com/castkit/playoutd/internal/core/output"
	"github.com/castkit/playoutd/internal/core/stage"
	"github.com/castkit/playoutd/internal/core/timecode"
	"github.com/castkit/playoutd/internal/diag"
	"github.com/castkit/playoutd/internal/events"
	"github.com/castkit/playoutd/internal/monitor"
)

// WholeChannel is the route key for a tap on the mixed stage output rather
// than a single layer.
const WholeChannel = -1

// TickCallback receives the full telemetry state at the end of every tick.
type TickCallback func(state monitor.State)

// Channel composes timecode, stage, mixer and output under a single
// fixed-cadence loop. The loop does not sleep; pacing comes from the
// consumers downstream.
type Channel struct {
	index  int
	logger *slog.Logger
	bus    *events.Bus

	formatMu sync.Mutex
	desc     format.Descriptor
	cadence  []int

	graph      *diag.Graph
	tc         *timecode.ChannelTimecode
	stage      *stage.Stage
	mixer      *mixer.Mixer
	output     *output.Output
	imageMixer mixer.ImageMixer
	tick       TickCallback

	routesMu sync.Mutex
	routes   map[int]weak.Pointer[Route]

	listenersMu    sync.Mutex
	lastListenerID int64
	listeners      map[int64]TimecodeListener

	stateMu sync.Mutex
	state   monitor.State

	abort atomic.Bool
	done  chan struct{}
}

// New creates a channel and starts its loop. The image mixer is owned by
// the channel for its lifetime and doubles as the frame factory handed to
// producers. The tick callback and bus may be nil.
func New(index int, desc format.Descriptor, imageMixer mixer.ImageMixer, tick TickCallback, bus *events.Bus, logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("channel", index)

	graph := diag.NewGraph(fmt.Sprintf("channel-%d", index))
	graph.SetColor("produce-time", diag.RGBA(0.0, 1.0, 0.0, 1.0))
	graph.SetColor("mix-time", diag.RGBA(1.0, 0.0, 0.9, 0.8))
	graph.SetColor("consume-time", diag.RGBA(1.0, 0.4, 0.0, 0.8))
	graph.SetColor("osc-time", diag.RGBA(0.3, 0.4, 0.0, 0.8))
	graph.SetColor("skipped-schedule", diag.RGBA(0.3, 0.6, 0.6, 1.0))
	graph.SetText(fmt.Sprintf("channel[%d|%s]", index, desc.Name))

	c := &Channel{
		index:      index,
		logger:     logger,
		bus:        bus,
		desc:       desc,
		cadence:    append([]int(nil), desc.AudioCadence...),
		graph:      graph,
		tc:         timecode.NewChannelTimecode(index, desc, logger),
		stage:      stage.New(index, logger),
		mixer:      mixer.New(index, graph, imageMixer, logger),
		output:     output.New(index, graph, logger),
		imageMixer: imageMixer,
		tick:       tick,
		routes:     make(map[int]weak.Pointer[Route]),
		listeners:  make(map[int64]TimecodeListener),
		state:      monitor.State{},
		done:       make(chan struct{}),
	}

	// Sync the timecode with current time
	c.tc.Start()

	logger.Info("Channel initialized", "format", desc.Name)

	go c.run()

	return c
}

func (c *Channel) run() {
	defer close(c.done)
	for !c.abort.Load() {
		c.runTick()
	}
}

// runTick executes one loop iteration inside the recover boundary: no
// failure below tears the channel down, the next tick just runs.
func (c *Channel) runTick() {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Tick failed", "error", fmt.Sprint(r))
			if c.bus != nil {
				c.bus.Publish(events.ChannelErrorEvent{Channel: c.index, Error: fmt.Sprint(r)})
			}
		}
	}()

	var desc format.Descriptor
	var nbSamples int
	c.formatMu.Lock()
	desc = c.desc
	rotate(c.cadence)
	nbSamples = c.cadence[0]
	c.formatMu.Unlock()

	state := monitor.State{}

	// Predict the new timecode for any producers to use
	c.tc.Predict()

	// Produce
	produceStart := time.Now()
	stageFrames := c.stage.Tick(desc, nbSamples)
	c.graph.SetValue("produce-time", occupancy(produceStart, desc))

	state.Assign("stage", c.stage.State())

	// Ensure it is accurate now the producers have run
	tc := c.tc.Finalize()

	// Schedule commands for the next timecode
	c.invokeTimecodeListeners(tc)

	// Mix
	mixStart := time.Now()
	mixedFrame := c.mixer.Mix(stageFrames, desc, desc.AudioCadence[0])
	c.graph.SetValue("mix-time", occupancy(mixStart, desc))

	state.Assign("mixer", c.mixer.State())

	// Consume
	consumeStart := time.Now()
	c.output.Push(tc, mixedFrame, desc)
	c.graph.SetValue("consume-time", occupancy(consumeStart, desc))

	c.fanOut(stageFrames)

	state.Assign("output", c.output.State())
	state.Set("timecode", tc.String())
	state.Set("timecode/source", c.tc.SourceName())
	for _, key := range []string{"produce-time", "mix-time", "consume-time"} {
		if p, ok := c.graph.Series(key).Latest(); ok {
			state.Set(key, p.Value)
		}
	}

	c.stateMu.Lock()
	c.state = state
	c.stateMu.Unlock()

	oscStart := time.Now()
	if c.tick != nil {
		c.tick(state.Copy())
	}
	c.graph.SetValue("osc-time", occupancy(oscStart, desc))

	if c.bus != nil {
		c.bus.Publish(events.ChannelTickEvent{
			Channel:     c.index,
			Timecode:    tc.String(),
			ProduceTime: latest(c.graph, "produce-time"),
			MixTime:     latest(c.graph, "mix-time"),
			ConsumeTime: latest(c.graph, "consume-time"),
		})
	}
}

// occupancy scales elapsed time by fps * 0.5: a step lasting one frame
// period reads 0.5, and 1.0 is reached at two frame periods.
func occupancy(start time.Time, desc format.Descriptor) float64 {
	return time.Since(start).Seconds() * desc.FPS() * 0.5
}

func latest(g *diag.Graph, name string) float64 {
	if p, ok := g.Series(name).Latest(); ok {
		return p.Value
	}
	return 0
}

// rotate shifts the cadence one position so its head always carries the
// next tick's sample count.
func rotate(cadence []int) {
	if len(cadence) < 2 {
		return
	}
	last := cadence[len(cadence)-1]
	copy(cadence[1:], cadence[:len(cadence)-1])
	cadence[0] = last
}

// fanOut delivers the stage's frames to any live routes: each layer's
// frame undecorated to its layer route, then all of them as one composite
// to the whole-channel route.
func (c *Channel) fanOut(stageFrames map[int]frame.DrawFrame) {
	c.routesMu.Lock()
	defer c.routesMu.Unlock()

	indexes := make([]int, 0, len(stageFrames))
	for index := range stageFrames {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)

	frames := make([]frame.DrawFrame, 0, len(indexes))
	for _, index := range indexes {
		f := stageFrames[index]
		frames = append(frames, f)

		if ref, ok := c.routes[index]; ok {
			if route := ref.Value(); route != nil {
				route.signal(frame.Pop(f))
			}
		}
	}

	if ref, ok := c.routes[WholeChannel]; ok {
		if route := ref.Value(); route != nil {
			route.signal(frame.Composite(frames))
		}
	}
}

func (c *Channel) invokeTimecodeListeners(tc timecode.FrameTimecode) {
	c.listenersMu.Lock()
	listeners := make([]TimecodeListener, 0, len(c.listeners))
	ids := make([]int64, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		listeners = append(listeners, c.listeners[id])
	}
	c.listenersMu.Unlock()

	for _, listener := range listeners {
		c.invokeListener(listener, tc)
	}
}

func (c *Channel) invokeListener(listener TimecodeListener, tc timecode.FrameTimecode) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Timecode listener failed", "error", fmt.Sprint(r))
		}
	}()
	listener(tc, c.graph)
}

// AddTimecodeListener registers a listener invoked with every finalized
// stamp. Closing the returned handle removes it.
func (c *Channel) AddTimecodeListener(listener TimecodeListener) *ListenerHandle {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()

	id := c.lastListenerID
	c.lastListenerID++
	c.listeners[id] = listener

	return &ListenerHandle{release: func() {
		c.listenersMu.Lock()
		defer c.listenersMu.Unlock()
		delete(c.listeners, id)
	}}
}

// Route returns the fan-out tap for a layer, or for the whole channel with
// WholeChannel. While someone owns the returned route, subsequent calls
// return the same instance; once all owners drop it, the entry dies and a
// later call builds a fresh one.
func (c *Channel) Route(index int) *Route {
	c.routesMu.Lock()
	defer c.routesMu.Unlock()

	if ref, ok := c.routes[index]; ok {
		if route := ref.Value(); route != nil {
			return route
		}
	}

	name := fmt.Sprintf("%d", c.index)
	if index != WholeChannel {
		name = fmt.Sprintf("%d/%d", c.index, index)
	}

	c.formatMu.Lock()
	desc := c.desc
	c.formatMu.Unlock()

	route := newRoute(name, desc)
	c.routes[index] = weak.Make(route)
	return route
}

// Index returns the channel's stable identity.
func (c *Channel) Index() int {
	return c.index
}

// Stage returns the channel's stage. The handle is valid for the
// channel's lifetime.
func (c *Channel) Stage() *stage.Stage {
	return c.stage
}

// Mixer returns the channel's mixer.
func (c *Channel) Mixer() *mixer.Mixer {
	return c.mixer
}

// Output returns the channel's output.
func (c *Channel) Output() *output.Output {
	return c.output
}

// Timecode returns the channel's timecode.
func (c *Channel) Timecode() *timecode.ChannelTimecode {
	return c.tc
}

// FrameFactory returns the factory producers allocate frames from; it is
// the injected image mixer.
func (c *Channel) FrameFactory() frame.Factory {
	return c.imageMixer
}

// Graph returns the channel's diagnostics graph.
func (c *Channel) Graph() *diag.Graph {
	return c.graph
}

// State returns the telemetry snapshot of the last completed tick.
func (c *Channel) State() monitor.State {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state.Copy()
}

// VideoFormatDesc returns the current format.
func (c *Channel) VideoFormatDesc() format.Descriptor {
	c.formatMu.Lock()
	defer c.formatMu.Unlock()
	return c.desc
}

// SetVideoFormatDesc switches the channel to a new format at the next tick
// boundary: the cadence restarts, the timecode re-anchors at the new rate,
// and the stage is cleared.
func (c *Channel) SetVideoFormatDesc(desc format.Descriptor) {
	c.formatMu.Lock()
	c.desc = desc
	c.cadence = append([]int(nil), desc.AudioCadence...)
	c.tc.ChangeFormat(desc)
	c.stage.Clear()
	c.formatMu.Unlock()

	c.graph.SetText(fmt.Sprintf("channel[%d|%s]", c.index, desc.Name))
	c.logger.Info("Format changed", "format", desc.Name)

	if c.bus != nil {
		c.bus.Publish(events.FormatChangedEvent{Channel: c.index, Format: desc.Name})
	}
}

// Close stops the loop, waits for the in-flight tick to finish, and closes
// the output's consumers.
func (c *Channel) Close() {
	if c.abort.Swap(true) {
		<-c.done
		return
	}
	c.logger.Info("Channel uninitializing")
	<-c.done
	c.output.Close()
}
