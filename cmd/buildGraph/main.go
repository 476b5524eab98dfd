package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image/color"
	"math"
	"os"
	"sort"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// spreadPoints implements XYer and YErrorer so a []spread can be drawn as a
// line with error bars.
type spreadPoints []spread

func (s spreadPoints) Len() int                { return len(s) }
func (s spreadPoints) XY(i int) (x, y float64) { return s[i].x, s[i].median }
func (s spreadPoints) YError(i int) (low, high float64) {
	return s[i].median - s[i].low, s[i].high - s[i].median
}

// categoryTicks labels evenly spaced category positions on the X axis.
type categoryTicks struct {
	positions []float64
	labels    []string
}

func (ct categoryTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	for i, pos := range ct.positions {
		if pos >= min && pos <= max {
			ticks = append(ticks, plot.Tick{Value: pos, Label: ct.labels[i]})
		}
	}
	return ticks
}

var (
	background = color.RGBA{R: 30, G: 30, B: 30, A: 255}
	foreground = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

func darkPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	p.BackgroundColor = background
	p.Title.TextStyle.Color = foreground
	p.X.Label.TextStyle.Color = foreground
	p.Y.Label.TextStyle.Color = foreground
	p.X.Color = foreground
	p.Y.Color = foreground
	p.X.Tick.Label.Color = foreground
	p.Y.Tick.Label.Color = foreground
	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.TextStyle.Color = foreground
	p.Add(plotter.NewGrid())
	return p
}

// logNsTicks spaces ticks evenly in log10 space and labels them as durations.
func logNsTicks(min, max float64) []plot.Tick {
	const nTicks = 12.0
	if min <= 0 {
		min = 1
	}
	start, end := math.Log10(min), math.Log10(max)
	step := (end - start) / nTicks

	var ticks []plot.Tick
	for i := 0.0; i <= nTicks; i++ {
		y := math.Pow(10, start+i*step)
		ticks = append(ticks, plot.Tick{Value: y, Label: formatNs(y)})
	}
	return ticks
}

func latencyPlot(cpus int, impls map[string]map[float64][]sample) (*plot.Plot, error) {
	p := darkPlot(
		fmt.Sprintf("Time per consumed item (5%%-avg-min / Median / 5%%-avg-max), %d CPU(s)", cpus),
		"NumProducers + NumConsumers",
		"Time per item [log scale]",
	)
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.TickerFunc(logNsTicks)

	xSet := make(map[float64]struct{})
	for _, byX := range impls {
		for x := range byX {
			xSet[x] = struct{}{}
		}
	}
	xs := make([]float64, 0, len(xSet))
	for x := range xSet {
		xs = append(xs, x)
	}
	sort.Float64s(xs)

	category := make(map[float64]float64, len(xs))
	ticks := categoryTicks{}
	for i, x := range xs {
		category[x] = float64(i)
		ticks.positions = append(ticks.positions, float64(i))
		ticks.labels = append(ticks.labels, strconv.FormatFloat(x, 'f', -1, 64))
	}
	p.X.Tick.Marker = ticks

	names := sortedKeys(impls)
	shapes := []draw.GlyphDrawer{
		draw.CircleGlyph{},
		draw.SquareGlyph{},
		draw.TriangleGlyph{},
		draw.CrossGlyph{},
		draw.PlusGlyph{},
	}

	// Nudge each implementation sideways so error bars do not overlap.
	const offsetRange = 0.4
	offsetStep := offsetRange / float64(len(names))
	startOffset := -offsetRange/2 + offsetStep/2

	for i, name := range names {
		spreads := buildSpreads(impls[name], func(s sample) float64 { return s.nsPerItem })
		if len(spreads) == 0 {
			continue
		}
		for j := range spreads {
			spreads[j].x = category[spreads[j].x] + startOffset + float64(i)*offsetStep
		}
		pts := spreadPoints(spreads)
		c := plotutil.SoftColors[i%len(plotutil.SoftColors)]

		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("line for %s: %w", name, err)
		}
		line.Color = c

		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("scatter for %s: %w", name, err)
		}
		scatter.GlyphStyle.Radius = vg.Points(5)
		scatter.Color = c
		scatter.Shape = shapes[i%len(shapes)]

		bars, err := plotter.NewYErrorBars(pts)
		if err != nil {
			return nil, fmt.Errorf("error bars for %s: %w", name, err)
		}
		bars.Color = c

		p.Add(line, scatter, bars)
		p.Legend.Add(name, line, scatter)
	}
	return p, nil
}

// dropPlot charts the mean share of produced items each implementation
// evicted. It returns nil when nothing was ever dropped.
func dropPlot(cpus int, impls map[string]map[float64][]sample) (*plot.Plot, error) {
	names := sortedKeys(impls)
	values := make(plotter.Values, len(names))
	dropped := false
	for i, name := range names {
		var sum float64
		var n int
		for _, ss := range impls[name] {
			for _, s := range ss {
				sum += s.dropRatio
				n++
			}
		}
		if n > 0 {
			values[i] = 100 * sum / float64(n)
		}
		if values[i] > 0 {
			dropped = true
		}
	}
	if !dropped {
		return nil, nil
	}

	p := darkPlot(fmt.Sprintf("Evicted share of produced items, %d CPU(s)", cpus), "", "Dropped [%]")
	chart, err := plotter.NewBarChart(values, vg.Points(40))
	if err != nil {
		return nil, fmt.Errorf("bar chart: %w", err)
	}
	chart.Color = plotutil.SoftColors[0]
	chart.LineStyle.Color = foreground
	p.Add(chart)
	p.NominalX(names...)
	return p, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func main() {
	jsonFile := flag.String("jsonfile", "test-results.json", "Path to JSON file containing bench sessions")
	outputPrefix := flag.String("out", "benchmark_graph", "Output graph image filename prefix")
	flag.Parse()

	data, err := os.ReadFile(*jsonFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading JSON file: %v\n", err)
		os.Exit(1)
	}
	var sessions []FullReport
	if err := json.Unmarshal(data, &sessions); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshalling JSON: %v\n", err)
		os.Exit(1)
	}

	byCPU := collectSamples(sessions)
	for cpus, impls := range byCPU {
		p, err := latencyPlot(cpus, impls)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error building plot for %d CPU(s): %v\n", cpus, err)
			continue
		}
		filename := fmt.Sprintf("%s_%d.png", *outputPrefix, cpus)
		if err := p.Save(12*vg.Inch, 9*vg.Inch, filename); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving plot for %d CPU(s): %v\n", cpus, err)
			continue
		}
		fmt.Printf("Graph for %d CPU(s) saved to %s\n", cpus, filename)

		dp, err := dropPlot(cpus, impls)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error building drop chart for %d CPU(s): %v\n", cpus, err)
			continue
		}
		if dp == nil {
			continue
		}
		filename = fmt.Sprintf("%s_%d_dropped.png", *outputPrefix, cpus)
		if err := dp.Save(8*vg.Inch, 6*vg.Inch, filename); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving drop chart for %d CPU(s): %v\n", cpus, err)
			continue
		}
		fmt.Printf("Drop chart for %d CPU(s) saved to %s\n", cpus, filename)
	}
}
