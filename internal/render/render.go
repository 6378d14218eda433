// Package render draws a record's signal with markers at the current
// candidate boundaries. The console points the operator at the generated
// files; any plotting technology could replace this package without the
// session changing.
package render

import (
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/kinelab/cyclescan/internal/detect"
	"github.com/kinelab/cyclescan/internal/signal"
)

// View is one render request: the signal, the boundaries to mark, and
// the threshold that produced them (zero threshold lines are omitted).
type View struct {
	Signal     *signal.Signal
	Source     signal.Source
	Boundaries detect.BoundarySet
	Threshold  float64
	Manual     bool // boundaries came from a manual cut
}

var (
	positionColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	velocityColor = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	boundaryColor = color.RGBA{R: 60, G: 60, B: 60, A: 255}
	manualColor   = color.RGBA{R: 180, G: 30, B: 180, A: 255}
	thresholdRed  = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// SavePNG writes one panel per series into dir and returns the file
// paths: <record>_position.png always, <record>_velocity.png when the
// signal carries velocity.
func SavePNG(v View, dir string) ([]string, error) {
	var paths []string

	posPath := filepath.Join(dir, v.Signal.Name+"_position.png")
	showThreshold := v.Threshold != 0 && v.Source == signal.SourcePosition
	if err := savePanel(v, v.Signal.Position, "Position", positionColor, showThreshold, posPath); err != nil {
		return nil, fmt.Errorf("render position panel: %w", err)
	}
	paths = append(paths, posPath)

	if len(v.Signal.Velocity) > 0 {
		velPath := filepath.Join(dir, v.Signal.Name+"_velocity.png")
		series := v.Signal.Velocity
		if v.Source == signal.SourceAbsVelocity {
			series = v.Signal.Series(signal.SourceAbsVelocity)
		}
		showThreshold = v.Threshold != 0 && v.Source != signal.SourcePosition
		if err := savePanel(v, series, "Velocity", velocityColor, showThreshold, velPath); err != nil {
			return nil, fmt.Errorf("render velocity panel: %w", err)
		}
		paths = append(paths, velPath)
	}
	return paths, nil
}

func savePanel(v View, series []float64, label string, lineColor color.Color, showThreshold bool, path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s - %s with detected cycles", v.Signal.Name, label)
	p.X.Label.Text = "Sample"
	p.Y.Label.Text = label

	pts := make(plotter.XYs, len(series))
	for i, y := range series {
		pts[i] = plotter.XY{X: float64(i), Y: y}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = lineColor
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add(label, line)

	yMin, yMax := floats.Min(series), floats.Max(series)
	if showThreshold && v.Threshold > yMax {
		yMax = v.Threshold
	}
	if showThreshold && v.Threshold < yMin {
		yMin = v.Threshold
	}

	markColor := boundaryColor
	if v.Manual {
		markColor = manualColor
	}
	for _, idx := range v.Boundaries {
		mark, err := plotter.NewLine(plotter.XYs{
			{X: float64(idx), Y: yMin},
			{X: float64(idx), Y: yMax},
		})
		if err != nil {
			return err
		}
		mark.Color = markColor
		mark.Width = vg.Points(1)
		mark.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
		p.Add(mark)
	}

	if showThreshold {
		threshold, err := plotter.NewLine(plotter.XYs{
			{X: 0, Y: v.Threshold},
			{X: float64(len(series) - 1), Y: v.Threshold},
		})
		if err != nil {
			return err
		}
		threshold.Color = thresholdRed
		threshold.Width = vg.Points(1)
		threshold.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
		p.Add(threshold)
		p.Legend.Add("Threshold", threshold)
	}

	p.Legend.Top = true
	p.Legend.Left = false

	return p.Save(14*vg.Inch, 6*vg.Inch, path)
}
