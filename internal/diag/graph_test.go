package diag

import (
	"testing"
)

func TestSetValueAndLatest(t *testing.T) {
	g := NewGraph("test-latest")
	g.SetValue("produce-time", 0.25)
	g.SetValue("produce-time", 0.5)

	p, ok := g.Series("produce-time").Latest()
	if !ok {
		t.Fatal("series should have samples")
	}
	if p.Value != 0.5 {
		t.Errorf("latest = %v, want 0.5", p.Value)
	}
}

func TestSeriesRingWraps(t *testing.T) {
	g := NewGraph("test-ring")
	for i := 0; i < seriesCapacity+10; i++ {
		g.SetValue("v", float64(i))
	}

	points := g.Series("v").Points()
	if len(points) != seriesCapacity {
		t.Fatalf("ring holds %d points, want %d", len(points), seriesCapacity)
	}
	// Oldest surviving sample first.
	if points[0].Value != 10 {
		t.Errorf("oldest = %v, want 10", points[0].Value)
	}
	if points[len(points)-1].Value != float64(seriesCapacity+9) {
		t.Errorf("newest = %v", points[len(points)-1].Value)
	}
}

func TestNilSeriesIsSafe(t *testing.T) {
	g := NewGraph("test-nil")
	if _, ok := g.Series("never-written").Latest(); ok {
		t.Error("unwritten series should have no latest")
	}
	if pts := g.Series("never-written").Points(); pts != nil {
		t.Errorf("unwritten series points = %v", pts)
	}
}

func TestColorsAndText(t *testing.T) {
	g := NewGraph("test-color")
	g.SetColor("mix-time", RGBA(1, 0, 0.9, 0.8))
	g.SetText("channel[1|PAL]")

	if g.Text() != "channel[1|PAL]" {
		t.Errorf("Text = %q", g.Text())
	}
	c := g.Series("mix-time").Color()
	if c.R != 1 || c.B != 0.9 {
		t.Errorf("color = %+v", c)
	}
}

func TestRegistryListsGraphs(t *testing.T) {
	g := NewGraph("test-registry")
	found := false
	for _, got := range Graphs() {
		if got == g {
			found = true
		}
	}
	if !found {
		t.Error("new graph should be listed in the registry")
	}
}

func TestSetTagRecordsUnitValue(t *testing.T) {
	g := NewGraph("test-tag")
	g.SetTag("audio-clipping")

	p, ok := g.Series("audio-clipping").Latest()
	if !ok || p.Value != 1.0 {
		t.Errorf("tag sample = %v, %v", p, ok)
	}
}
