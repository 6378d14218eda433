// Package detect implements cycle-boundary detection over a sampled
// series: threshold-gated extremum finding with a minimum temporal
// separation, and validation of operator-supplied manual cuts.
package detect

import (
	"fmt"
	"math"
	"sort"
)

// Pattern is the detection mode.
type Pattern string

const (
	// PatternOnPeak detects local maxima above the threshold.
	PatternOnPeak Pattern = "on_peak"
	// PatternBetweenPeak detects local minima below the threshold.
	PatternBetweenPeak Pattern = "between_peak"
	// PatternBoth merges both, re-enforcing the minimum distance across
	// the merged sequence.
	PatternBoth Pattern = "both"
)

// ParsePattern validates a pattern name from config or CLI input.
func ParsePattern(s string) (Pattern, error) {
	switch Pattern(s) {
	case PatternOnPeak, PatternBetweenPeak, PatternBoth:
		return Pattern(s), nil
	}
	return "", fmt.Errorf("invalid pattern %q (want on_peak, between_peak or both)", s)
}

// Parameters is one immutable snapshot of the detection settings. The
// JSON shape is shared by result files and the parameter store.
type Parameters struct {
	Threshold          float64 `json:"threshold"`
	MinDistanceSeconds float64 `json:"min_distance_seconds"`
	Pattern            Pattern `json:"pattern"`
}

// DefaultParameters are the seeds used when no parameter store exists.
func DefaultParameters() Parameters {
	return Parameters{
		Threshold:          1.0,
		MinDistanceSeconds: 2.0,
		Pattern:            PatternBoth,
	}
}

// Validate reports whether the snapshot is usable for detection.
func (p Parameters) Validate() error {
	if p.MinDistanceSeconds < 0 {
		return fmt.Errorf("min_distance_seconds must be >= 0, got %g", p.MinDistanceSeconds)
	}
	if _, err := ParsePattern(string(p.Pattern)); err != nil {
		return err
	}
	return nil
}

// BoundarySet is an ordered set of strictly increasing sample indices,
// each within the originating series.
type BoundarySet []int

// MinDistanceSamples converts the minimum separation to samples at the
// given sampling frequency, floored at one sample.
func (p Parameters) MinDistanceSamples(fs float64) int {
	d := int(math.Round(p.MinDistanceSeconds * fs))
	if d < 1 {
		d = 1
	}
	return d
}

// candidate is one extremum before separation enforcement. strength
// decides who survives when two candidates are too close.
type candidate struct {
	index    int
	strength float64
}

// Detect locates cycle boundaries in values sampled at fs Hz. It is a
// pure function of its inputs and never fails: signals too short to hold
// a cycle, or thresholds that exclude every extremum, yield an empty set.
func Detect(values []float64, fs float64, p Parameters) BoundarySet {
	minDist := p.MinDistanceSamples(fs)
	if len(values) < 2*minDist {
		return nil
	}

	var cands []candidate
	switch p.Pattern {
	case PatternOnPeak:
		cands = peakCandidates(values, p.Threshold)
	case PatternBetweenPeak:
		cands = troughCandidates(values, p.Threshold)
	case PatternBoth:
		// Each polarity is resolved on its own first; the merged set is
		// then re-thinned comparing deviation from the threshold, so the
		// stronger of a close peak/trough pair wins.
		peaks := enforceSeparation(peakCandidates(values, p.Threshold), minDist)
		troughs := enforceSeparation(troughCandidates(values, p.Threshold), minDist)
		for _, i := range peaks {
			cands = append(cands, candidate{i, math.Abs(values[i] - p.Threshold)})
		}
		for _, i := range troughs {
			cands = append(cands, candidate{i, math.Abs(values[i] - p.Threshold)})
		}
	default:
		return nil
	}

	return enforceSeparation(cands, minDist)
}

// peakCandidates returns local maxima above the threshold. A plateau
// counts once, at its leftmost sample. strength is the sample value, so
// the larger peak wins separation conflicts.
func peakCandidates(values []float64, threshold float64) []candidate {
	var out []candidate
	n := len(values)
	for i := 1; i < n-1; {
		if values[i] <= values[i-1] {
			i++
			continue
		}
		// Ascended to values[i]; walk any plateau.
		j := i
		for j+1 < n && values[j+1] == values[i] {
			j++
		}
		if j+1 < n && values[j+1] < values[i] && values[i] > threshold {
			out = append(out, candidate{i, values[i]})
		}
		i = j + 1
	}
	return out
}

// troughCandidates is peakCandidates with the polarity inverted: local
// minima below the threshold, deeper minimum wins conflicts.
func troughCandidates(values []float64, threshold float64) []candidate {
	var out []candidate
	n := len(values)
	for i := 1; i < n-1; {
		if values[i] >= values[i-1] {
			i++
			continue
		}
		j := i
		for j+1 < n && values[j+1] == values[i] {
			j++
		}
		if j+1 < n && values[j+1] > values[i] && values[i] < threshold {
			out = append(out, candidate{i, -values[i]})
		}
		i = j + 1
	}
	return out
}

// enforceSeparation keeps the strongest candidates such that no two kept
// indices are closer than minDist samples. Ties break toward the earlier
// index. The result is sorted ascending.
func enforceSeparation(cands []candidate, minDist int) BoundarySet {
	if len(cands) == 0 {
		return nil
	}
	order := make([]candidate, len(cands))
	copy(order, cands)
	sort.SliceStable(order, func(a, b int) bool {
		if order[a].strength != order[b].strength {
			return order[a].strength > order[b].strength
		}
		return order[a].index < order[b].index
	})

	var kept []int
	for _, c := range order {
		ok := true
		for _, k := range kept {
			if abs(c.index-k) < minDist {
				ok = false
				break
			}
		}
		if ok {
			kept = append(kept, c.index)
		}
	}
	sort.Ints(kept)
	return BoundarySet(kept)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// AnchorEndpoints returns the set extended to cover the whole record:
// index 0 and the final index are added when not already present. An
// empty set stays empty.
func AnchorEndpoints(b BoundarySet, length int) BoundarySet {
	if len(b) == 0 || length == 0 {
		return b
	}
	out := make(BoundarySet, 0, len(b)+2)
	if b[0] != 0 {
		out = append(out, 0)
	}
	out = append(out, b...)
	if out[len(out)-1] != length-1 {
		out = append(out, length-1)
	}
	return out
}
