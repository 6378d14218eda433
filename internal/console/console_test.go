package console

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/kinelab/cyclescan/internal/detect"
	"github.com/kinelab/cyclescan/internal/session"
	"github.com/kinelab/cyclescan/internal/signal"
)

func testSignal(t *testing.T) *signal.Signal {
	t.Helper()
	pos := make([]float64, 200)
	for i := range pos {
		pos[i] = math.Sin(2 * math.Pi * float64(i) / 100)
	}
	sig, err := signal.New("trial01", pos, nil, 100)
	if err != nil {
		t.Fatal(err)
	}
	return sig
}

func newTestConsole(t *testing.T, script string) (*Console, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	c := New(strings.NewReader(script), &out, signal.SourcePosition, t.TempDir(), false)
	return c, &out
}

func TestReviewAcceptByDefault(t *testing.T) {
	c, _ := newTestConsole(t, "\n")
	d, err := c.Review(testSignal(t), detect.DefaultParameters(), detect.BoundarySet{25, 125})
	if err != nil {
		t.Fatalf("Review() unexpected error: %v", err)
	}
	if d.Kind != session.DecisionAccept {
		t.Errorf("Review() decision = %v, want accept", d.Kind)
	}
}

func TestReviewAdjustCollectsParameters(t *testing.T) {
	c, _ := newTestConsole(t, "n\n2.5\n1.5\non_peak\n")
	d, err := c.Review(testSignal(t), detect.DefaultParameters(), nil)
	if err != nil {
		t.Fatalf("Review() unexpected error: %v", err)
	}
	if d.Kind != session.DecisionAdjust {
		t.Fatalf("Review() decision = %v, want adjust", d.Kind)
	}
	want := detect.Parameters{Threshold: 2.5, MinDistanceSeconds: 1.5, Pattern: detect.PatternOnPeak}
	if d.Parameters != want {
		t.Errorf("adjusted parameters = %+v, want %+v", d.Parameters, want)
	}
}

func TestReviewAdjustKeepsDefaultsOnEmptyInput(t *testing.T) {
	c, _ := newTestConsole(t, "n\n\n\n\n")
	current := detect.Parameters{Threshold: 0.7, MinDistanceSeconds: 1.2, Pattern: detect.PatternBetweenPeak}
	d, err := c.Review(testSignal(t), current, nil)
	if err != nil {
		t.Fatalf("Review() unexpected error: %v", err)
	}
	if d.Parameters != current {
		t.Errorf("adjusted parameters = %+v, want unchanged %+v", d.Parameters, current)
	}
}

func TestReviewManualAndAbort(t *testing.T) {
	c, _ := newTestConsole(t, "m\n")
	d, err := c.Review(testSignal(t), detect.DefaultParameters(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if d.Kind != session.DecisionManual {
		t.Errorf("Review(\"m\") decision = %v, want manual", d.Kind)
	}

	c, _ = newTestConsole(t, "q\n")
	d, err = c.Review(testSignal(t), detect.DefaultParameters(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if d.Kind != session.DecisionAbort {
		t.Errorf("Review(\"q\") decision = %v, want abort", d.Kind)
	}
}

func TestReviewRepromptsOnGarbage(t *testing.T) {
	c, out := newTestConsole(t, "maybe\ny\n")
	d, err := c.Review(testSignal(t), detect.DefaultParameters(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if d.Kind != session.DecisionAccept {
		t.Errorf("decision = %v, want accept after re-prompt", d.Kind)
	}
	if !strings.Contains(out.String(), "Please answer") {
		t.Error("expected a re-prompt message")
	}
}

func TestProposeCutsParsesIndices(t *testing.T) {
	c, out := newTestConsole(t, "5 nope\n5 2 9\n")
	got, err := c.ProposeCuts(testSignal(t), nil)
	if err != nil {
		t.Fatalf("ProposeCuts() unexpected error: %v", err)
	}
	want := []int{5, 2, 9}
	if len(got) != len(want) {
		t.Fatalf("ProposeCuts() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ProposeCuts()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
	if !strings.Contains(out.String(), "re-enter") {
		t.Error("expected a parse-failure message before the retry")
	}
}

func TestProposeCutsShowsValidationFailure(t *testing.T) {
	c, out := newTestConsole(t, "1 2\n")
	invalid := &detect.OutOfRangeError{Index: 900, Length: 200}
	if _, err := c.ProposeCuts(testSignal(t), invalid); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "out of range") {
		t.Error("expected the previous validation failure to be shown")
	}
}

func TestConfirmCuts(t *testing.T) {
	c, _ := newTestConsole(t, "\n")
	keep, err := c.ConfirmCuts(testSignal(t), detect.BoundarySet{2, 5, 9})
	if err != nil {
		t.Fatal(err)
	}
	if !keep {
		t.Error("ConfirmCuts() = false on default answer, want true")
	}

	c, _ = newTestConsole(t, "n\n")
	keep, err = c.ConfirmCuts(testSignal(t), detect.BoundarySet{2, 5, 9})
	if err != nil {
		t.Fatal(err)
	}
	if keep {
		t.Error("ConfirmCuts() = true on \"n\", want false")
	}
}

func TestReviewEOFPropagates(t *testing.T) {
	c, _ := newTestConsole(t, "")
	if _, err := c.Review(testSignal(t), detect.DefaultParameters(), nil); err == nil {
		t.Error("Review() with closed input: expected error")
	}
}
