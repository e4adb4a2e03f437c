// Package diag stores the per-channel diagnostics graphs: named time
// series of normalized occupancy ratios, colored for rendering, exported
// as Prometheus gauges.
package diag

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const seriesCapacity = 600

var graphValue = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "playoutd",
	Subsystem: "diag",
	Name:      "value",
	Help:      "Latest value of a diagnostics graph series",
}, []string{"graph", "series"})

// Color tints a series when the graph is rendered.
type Color struct {
	R, G, B, A float32
}

// RGBA builds a color.
func RGBA(r, g, b, a float32) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// Point is one sample of a series.
type Point struct {
	Time  time.Time
	Value float64
}

// Series is a ring buffer of recent samples for one graph line.
type Series struct {
	points []Point
	head   int
	size   int
	color  Color
}

func newSeries() *Series {
	return &Series{points: make([]Point, seriesCapacity)}
}

func (s *Series) add(p Point) {
	s.points[s.head] = p
	s.head = (s.head + 1) % len(s.points)
	if s.size < len(s.points) {
		s.size++
	}
}

// Points returns the samples in chronological order. A nil series has
// none.
func (s *Series) Points() []Point {
	if s == nil || s.size == 0 {
		return nil
	}
	out := make([]Point, 0, s.size)
	start := 0
	if s.size == len(s.points) {
		start = s.head
	}
	for i := 0; i < s.size; i++ {
		out = append(out, s.points[(start+i)%len(s.points)])
	}
	return out
}

// Latest returns the most recent sample, ok false when empty or nil.
func (s *Series) Latest() (Point, bool) {
	if s == nil || s.size == 0 {
		return Point{}, false
	}
	idx := (s.head - 1 + len(s.points)) % len(s.points)
	return s.points[idx], true
}

// Color returns the series tint.
func (s *Series) Color() Color {
	return s.color
}

// Graph is one component's set of diagnostic series. Values are written
// from the channel loop and read from the API, so access is locked.
type Graph struct {
	mu     sync.RWMutex
	name   string
	text   string
	series map[string]*Series
}

// NewGraph creates a graph and registers it for listing.
func NewGraph(name string) *Graph {
	g := &Graph{
		name:   name,
		series: make(map[string]*Series),
	}
	register(g)
	return g
}

// Name returns the graph's registration name.
func (g *Graph) Name() string {
	return g.name
}

// SetText sets the human-readable label shown with the graph.
func (g *Graph) SetText(text string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.text = text
}

// Text returns the graph label.
func (g *Graph) Text() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.text
}

// SetColor assigns the tint a series is rendered with.
func (g *Graph) SetColor(name string, c Color) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seriesLocked(name).color = c
}

// SetValue appends a sample to a series and updates its gauge.
func (g *Graph) SetValue(name string, value float64) {
	g.mu.Lock()
	g.seriesLocked(name).add(Point{Time: time.Now(), Value: value})
	g.mu.Unlock()

	graphValue.WithLabelValues(g.name, name).Set(value)
}

// SetTag marks a one-off event on a series by recording a unit sample.
func (g *Graph) SetTag(name string) {
	g.SetValue(name, 1.0)
}

// Series returns the named series, nil when it has never been written.
func (g *Graph) Series(name string) *Series {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.series[name]
}

// SeriesNames returns the names of all series written so far.
func (g *Graph) SeriesNames() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	names := make([]string, 0, len(g.series))
	for name := range g.series {
		names = append(names, name)
	}
	return names
}

func (g *Graph) seriesLocked(name string) *Series {
	s, ok := g.series[name]
	if !ok {
		s = newSeries()
		g.series[name] = s
	}
	return s
}

var (
	registryMu sync.Mutex
	registered []*Graph
)

func register(g *Graph) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registered = append(registered, g)
}

// Graphs returns every registered graph.
func Graphs() []*Graph {
	registryMu.Lock()
	defer registryMu.Unlock()
	out := make([]*Graph, len(registered))
	copy(out, registered)
	return out
}
