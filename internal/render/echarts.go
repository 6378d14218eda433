package render

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// SaveHTML writes an interactive chart of the detection series with the
// boundaries overlaid as scatter points. Useful when the operator wants
// to zoom in on a noisy region before deciding.
func SaveHTML(v View, dir string) (string, error) {
	series := v.Signal.Series(v.Source)

	xs := make([]int, len(series))
	data := make([]opts.LineData, len(series))
	for i, y := range series {
		xs[i] = i
		data[i] = opts.LineData{Value: y}
	}

	marks := make([]opts.ScatterData, 0, len(v.Boundaries))
	for _, idx := range v.Boundaries {
		marks = append(marks, opts.ScatterData{Value: []interface{}{idx, series[idx]}})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: v.Signal.Name,
			Width:     "1400px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s (%s)", v.Signal.Name, v.Source),
			Subtitle: fmt.Sprintf("boundaries=%d threshold=%g", len(v.Boundaries), v.Threshold),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)
	line.SetXAxis(xs).AddSeries(string(v.Source), data)

	scatter := charts.NewScatter()
	scatter.AddSeries("boundaries", marks,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 10}),
	)
	line.Overlap(scatter)

	path := filepath.Join(dir, v.Signal.Name+"_cycles.html")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create chart file: %w", err)
	}
	defer f.Close()

	if err := line.Render(f); err != nil {
		return "", fmt.Errorf("render chart: %w", err)
	}
	return path, nil
}
