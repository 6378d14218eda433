// Package console is the terminal Operator for adjustment sessions. It
// renders the current detection to plot files, echoes a numeric summary,
// and collects decisions through blocking line prompts. Input and output
// are plain readers/writers so tests can script whole sessions.
package console

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kinelab/cyclescan/internal/detect"
	"github.com/kinelab/cyclescan/internal/render"
	"github.com/kinelab/cyclescan/internal/session"
	"github.com/kinelab/cyclescan/internal/signal"
)

var (
	styleOK   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleWarn = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleErr  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleInfo = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// Console implements session.Operator on a terminal.
type Console struct {
	in        *bufio.Reader
	out       io.Writer
	source    signal.Source
	renderDir string
	html      bool
}

// New builds a console reading decisions from in and writing prompts and
// status to out. Plot files go to renderDir; when html is set an
// interactive chart is generated alongside the PNGs.
func New(in io.Reader, out io.Writer, source signal.Source, renderDir string, html bool) *Console {
	return &Console{
		in:        bufio.NewReader(in),
		out:       out,
		source:    source,
		renderDir: renderDir,
		html:      html,
	}
}

// Review renders the detection, echoes the tuning summary, and reads the
// operator's verdict: accept (y), adjust (n), manual cutting (m), or
// abort the record (q).
func (c *Console) Review(sig *signal.Signal, params detect.Parameters, bounds detect.BoundarySet) (session.Decision, error) {
	c.render(render.View{
		Signal:     sig,
		Source:     c.source,
		Boundaries: bounds,
		Threshold:  params.Threshold,
	})
	c.summary(sig, bounds)

	for {
		answer, err := c.prompt(fmt.Sprintf(
			"Are the detection results acceptable? [Y/n/m(anual)/q(uit record)] (threshold=%g distance=%gs pattern=%s)",
			params.Threshold, params.MinDistanceSeconds, params.Pattern), "y")
		if err != nil {
			return session.Decision{}, err
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
			return session.Decision{Kind: session.DecisionAccept}, nil
		case "m", "manual":
			return session.Decision{Kind: session.DecisionManual}, nil
		case "q", "quit":
			fmt.Fprintln(c.out, styleWarn.Render("Aborting record; nothing will be saved."))
			return session.Decision{Kind: session.DecisionAbort}, nil
		case "n", "no":
			next, err := c.promptParameters(params)
			if err != nil {
				return session.Decision{}, err
			}
			return session.Decision{Kind: session.DecisionAdjust, Parameters: next}, nil
		default:
			fmt.Fprintln(c.out, styleWarn.Render("Please answer y, n, m or q."))
		}
	}
}

// ProposeCuts collects raw boundary indices for a manual cut. A prior
// validation failure is shown before re-prompting.
func (c *Console) ProposeCuts(sig *signal.Signal, invalid error) ([]int, error) {
	if invalid != nil {
		fmt.Fprintln(c.out, styleErr.Render("Invalid cuts: "+invalid.Error()))
	}
	c.render(render.View{Signal: sig, Source: c.source})

	for {
		answer, err := c.prompt(
			fmt.Sprintf("Enter cycle boundary indices for %q, space-separated (0..%d)", sig.Name, sig.Len()-1), "")
		if err != nil {
			return nil, err
		}
		fields := strings.Fields(answer)
		if len(fields) == 0 {
			fmt.Fprintln(c.out, styleWarn.Render("No points entered. Please try again."))
			continue
		}
		indices := make([]int, 0, len(fields))
		ok := true
		for _, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil {
				fmt.Fprintln(c.out, styleWarn.Render(fmt.Sprintf("Not an index: %q. Please re-enter all points.", f)))
				ok = false
				break
			}
			indices = append(indices, v)
		}
		if ok {
			return indices, nil
		}
	}
}

// ConfirmCuts renders the validated manual cut and asks whether to keep
// it. Declining restarts manual cutting from scratch.
func (c *Console) ConfirmCuts(sig *signal.Signal, bounds detect.BoundarySet) (bool, error) {
	c.render(render.View{
		Signal:     sig,
		Source:     c.source,
		Boundaries: bounds,
		Manual:     true,
	})
	keep, err := c.Confirm(fmt.Sprintf("Keep these %d manual cuts?", len(bounds)), true)
	if err != nil {
		return false, err
	}
	if !keep {
		fmt.Fprintln(c.out, styleWarn.Render("Restarting manual cutting."))
	}
	return keep, nil
}

// Confirm asks a yes/no question with a default answer.
func (c *Console) Confirm(label string, def bool) (bool, error) {
	hint := "Y/n"
	defAnswer := "y"
	if !def {
		hint = "y/N"
		defAnswer = "n"
	}
	for {
		answer, err := c.prompt(fmt.Sprintf("%s [%s]", label, hint), defAnswer)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Fprintln(c.out, styleWarn.Render("Please answer y or n."))
		}
	}
}

// Infof prints a styled status line.
func (c *Console) Infof(format string, args ...any) {
	fmt.Fprintln(c.out, styleInfo.Render(fmt.Sprintf(format, args...)))
}

// Successf prints a styled success line.
func (c *Console) Successf(format string, args ...any) {
	fmt.Fprintln(c.out, styleOK.Render(fmt.Sprintf(format, args...)))
}

// Errorf prints a styled error line.
func (c *Console) Errorf(format string, args ...any) {
	fmt.Fprintln(c.out, styleErr.Render(fmt.Sprintf(format, args...)))
}

// promptParameters collects an adjusted parameter snapshot, showing the
// current values as defaults.
func (c *Console) promptParameters(current detect.Parameters) (detect.Parameters, error) {
	threshold, err := c.promptFloat("Enter new threshold value", current.Threshold)
	if err != nil {
		return detect.Parameters{}, err
	}
	distance, err := c.promptFloat("Enter new peak distance (in seconds)", current.MinDistanceSeconds)
	if err != nil {
		return detect.Parameters{}, err
	}
	pattern, err := c.promptPattern("Enter pattern (on_peak/between_peak/both)", current.Pattern)
	if err != nil {
		return detect.Parameters{}, err
	}
	return detect.Parameters{
		Threshold:          threshold,
		MinDistanceSeconds: distance,
		Pattern:            pattern,
	}, nil
}

func (c *Console) promptFloat(label string, def float64) (float64, error) {
	for {
		answer, err := c.prompt(fmt.Sprintf("%s [%g]", label, def), "")
		if err != nil {
			return 0, err
		}
		if answer == "" {
			return def, nil
		}
		v, err := strconv.ParseFloat(answer, 64)
		if err != nil {
			fmt.Fprintln(c.out, styleWarn.Render("Not a number, try again."))
			continue
		}
		return v, nil
	}
}

func (c *Console) promptPattern(label string, def detect.Pattern) (detect.Pattern, error) {
	for {
		answer, err := c.prompt(fmt.Sprintf("%s [%s]", label, def), "")
		if err != nil {
			return "", err
		}
		if answer == "" {
			return def, nil
		}
		p, err := detect.ParsePattern(strings.ToLower(answer))
		if err != nil {
			fmt.Fprintln(c.out, styleWarn.Render(err.Error()))
			continue
		}
		return p, nil
	}
}

// prompt writes the label and reads one trimmed line. def is returned on
// empty input when non-empty.
func (c *Console) prompt(label, def string) (string, error) {
	fmt.Fprintf(c.out, "%s: ", label)
	line, err := c.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read operator input: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	return line, nil
}

// render writes the plot files and tells the operator where they are.
// Rendering problems are reported but never block the session: the
// operator can still decide from the numeric summary.
func (c *Console) render(v render.View) {
	paths, err := render.SavePNG(v, c.renderDir)
	if err != nil {
		fmt.Fprintln(c.out, styleErr.Render("Plot rendering failed: "+err.Error()))
	} else {
		fmt.Fprintln(c.out, styleInfo.Render("Plots: "+strings.Join(paths, ", ")))
	}
	if c.html {
		path, err := render.SaveHTML(v, c.renderDir)
		if err != nil {
			fmt.Fprintln(c.out, styleErr.Render("Chart rendering failed: "+err.Error()))
		} else {
			fmt.Fprintln(c.out, styleInfo.Render("Interactive chart: "+path))
		}
	}
}

// summary echoes cycle count and series statistics, the numbers an
// operator tunes the threshold against.
func (c *Console) summary(sig *signal.Signal, bounds detect.BoundarySet) {
	cycles := 0
	if len(bounds) > 1 {
		cycles = len(bounds) - 1
	}
	series := sig.Series(c.source)
	fmt.Fprintln(c.out, styleWarn.Render(fmt.Sprintf("Detected %d cycles (%d boundaries).", cycles, len(bounds))))
	fmt.Fprintln(c.out, styleInfo.Render(fmt.Sprintf(
		"%s: max=%.4f min=%.4f mean=%.4f",
		c.source, floats.Max(series), floats.Min(series), stat.Mean(series, nil))))
}
