package session

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinelab/cyclescan/internal/detect"
	"github.com/kinelab/cyclescan/internal/signal"
)

// scriptedOperator replays canned decisions, standing in for a human at
// the console.
type scriptedOperator struct {
	decisions []Decision
	proposals [][]int
	confirms  []bool

	reviews      int
	cutsRequests int
	invalidSeen  []error
	reviewErr    error
}

func (o *scriptedOperator) Review(sig *signal.Signal, params detect.Parameters, bounds detect.BoundarySet) (Decision, error) {
	if o.reviewErr != nil {
		return Decision{}, o.reviewErr
	}
	d := o.decisions[o.reviews]
	o.reviews++
	return d, nil
}

func (o *scriptedOperator) ProposeCuts(sig *signal.Signal, invalid error) ([]int, error) {
	o.invalidSeen = append(o.invalidSeen, invalid)
	p := o.proposals[o.cutsRequests]
	o.cutsRequests++
	return p, nil
}

func (o *scriptedOperator) ConfirmCuts(sig *signal.Signal, bounds detect.BoundarySet) (bool, error) {
	ok := o.confirms[0]
	o.confirms = o.confirms[1:]
	return ok, nil
}

func testSignal(t *testing.T) *signal.Signal {
	t.Helper()
	pos := make([]float64, 500)
	for i := range pos {
		pos[i] = math.Sin(2 * math.Pi * float64(i) / 100)
	}
	sig, err := signal.New("trial01", pos, nil, 100)
	require.NoError(t, err)
	return sig
}

func TestRunAcceptFirstDetection(t *testing.T) {
	sig := testSignal(t)
	op := &scriptedOperator{decisions: []Decision{{Kind: DecisionAccept}}}
	params := detect.Parameters{Threshold: 0.5, MinDistanceSeconds: 0.5, Pattern: detect.PatternOnPeak}

	outcome, err := New(op, signal.SourcePosition, false).Run(sig, params)

	require.NoError(t, err)
	assert.True(t, outcome.Accepted)
	assert.False(t, outcome.Manual)
	assert.Equal(t, params, outcome.Parameters)
	assert.Equal(t, detect.Detect(sig.Position, sig.FS, params), outcome.Boundaries)
	assert.Equal(t, 1, op.reviews)
}

func TestRunAdjustThenAccept(t *testing.T) {
	sig := testSignal(t)
	adjusted := detect.Parameters{Threshold: 0.8, MinDistanceSeconds: 1, Pattern: detect.PatternOnPeak}
	op := &scriptedOperator{decisions: []Decision{
		{Kind: DecisionAdjust, Parameters: adjusted},
		{Kind: DecisionAccept},
	}}
	initial := detect.Parameters{Threshold: 0.2, MinDistanceSeconds: 0.5, Pattern: detect.PatternBoth}

	outcome, err := New(op, signal.SourcePosition, false).Run(sig, initial)

	require.NoError(t, err)
	assert.True(t, outcome.Accepted)
	assert.Equal(t, adjusted, outcome.Parameters, "accepted snapshot must be the adjusted one")
	assert.Equal(t, detect.Detect(sig.Position, sig.FS, adjusted), outcome.Boundaries)
	assert.Equal(t, 2, op.reviews, "each detection pass gets its own review")
}

func TestRunManualCutWithRetry(t *testing.T) {
	sig := testSignal(t)
	op := &scriptedOperator{
		decisions: []Decision{{Kind: DecisionManual}},
		proposals: [][]int{{900}, {5, 5, 2, 9}},
		confirms:  []bool{true},
	}

	outcome, err := New(op, signal.SourcePosition, true).Run(sig, detect.DefaultParameters())

	require.NoError(t, err)
	assert.True(t, outcome.Accepted)
	assert.True(t, outcome.Manual)
	assert.Equal(t, detect.BoundarySet{2, 5, 9}, outcome.Boundaries,
		"manual cuts are taken verbatim, never anchored")

	require.Len(t, op.invalidSeen, 2)
	assert.NoError(t, op.invalidSeen[0], "first proposal gets no prior error")
	var rangeErr *detect.OutOfRangeError
	assert.ErrorAs(t, op.invalidSeen[1], &rangeErr, "re-prompt carries the validation failure")
}

func TestRunManualRestartDiscardsProposal(t *testing.T) {
	sig := testSignal(t)
	op := &scriptedOperator{
		decisions: []Decision{{Kind: DecisionManual}},
		proposals: [][]int{{2, 9}, {3, 8}},
		confirms:  []bool{false, true},
	}

	outcome, err := New(op, signal.SourcePosition, false).Run(sig, detect.DefaultParameters())

	require.NoError(t, err)
	assert.Equal(t, detect.BoundarySet{3, 8}, outcome.Boundaries,
		"restart replaces the proposal instead of merging")
	require.Len(t, op.invalidSeen, 2)
	assert.NoError(t, op.invalidSeen[1], "restart is not a validation failure")
}

func TestRunAbortLeavesNothing(t *testing.T) {
	sig := testSignal(t)
	op := &scriptedOperator{decisions: []Decision{{Kind: DecisionAbort}}}

	outcome, err := New(op, signal.SourcePosition, false).Run(sig, detect.DefaultParameters())

	require.NoError(t, err)
	assert.False(t, outcome.Accepted)
	assert.Nil(t, outcome.Boundaries)
}

func TestRunAnchorsAcceptedDetections(t *testing.T) {
	sig := testSignal(t)
	op := &scriptedOperator{decisions: []Decision{{Kind: DecisionAccept}}}
	params := detect.Parameters{Threshold: 0.5, MinDistanceSeconds: 0.5, Pattern: detect.PatternOnPeak}

	outcome, err := New(op, signal.SourcePosition, true).Run(sig, params)

	require.NoError(t, err)
	require.NotEmpty(t, outcome.Boundaries)
	assert.Equal(t, 0, outcome.Boundaries[0])
	assert.Equal(t, sig.Len()-1, outcome.Boundaries[len(outcome.Boundaries)-1])
}

func TestRunOperatorErrorAbortsRecord(t *testing.T) {
	sig := testSignal(t)
	op := &scriptedOperator{reviewErr: errors.New("stdin closed")}

	_, err := New(op, signal.SourcePosition, false).Run(sig, detect.DefaultParameters())

	assert.Error(t, err)
}

func TestRunRejectsInvalidAdjustment(t *testing.T) {
	sig := testSignal(t)
	op := &scriptedOperator{decisions: []Decision{
		{Kind: DecisionAdjust, Parameters: detect.Parameters{Threshold: 1, MinDistanceSeconds: -1, Pattern: detect.PatternBoth}},
	}}

	_, err := New(op, signal.SourcePosition, false).Run(sig, detect.DefaultParameters())

	assert.Error(t, err)
}
