// Package session drives the per-record adjustment loop as an explicit
// state machine, so a human console and a scripted test harness can steer
// it identically.
package session

import (
	"fmt"

	"github.com/kinelab/cyclescan/internal/detect"
	"github.com/kinelab/cyclescan/internal/signal"
)

// State is the session's position in the adjustment loop.
type State int

const (
	StateDetecting State = iota
	StateReviewing
	StateManual
	StateAccepted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateDetecting:
		return "detecting"
	case StateReviewing:
		return "reviewing"
	case StateManual:
		return "manual"
	case StateAccepted:
		return "accepted"
	case StateAborted:
		return "aborted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// DecisionKind is the operator's verdict on a reviewed detection.
type DecisionKind int

const (
	// DecisionAccept finishes the record with the current boundaries.
	DecisionAccept DecisionKind = iota
	// DecisionAdjust re-runs detection with Decision.Parameters.
	DecisionAdjust
	// DecisionManual hands control to the manual cutter.
	DecisionManual
	// DecisionAbort discards the record: no result, no log entry.
	DecisionAbort
)

// Decision carries the operator's choice out of a review. Parameters is
// only meaningful for DecisionAdjust.
type Decision struct {
	Kind       DecisionKind
	Parameters detect.Parameters
}

// Operator is the capability the session suspends on: rendering the
// current state and collecting a decision. Implementations block until
// the operator has answered.
type Operator interface {
	// Review presents the current boundaries and returns the operator's
	// decision.
	Review(sig *signal.Signal, params detect.Parameters, bounds detect.BoundarySet) (Decision, error)

	// ProposeCuts collects raw boundary positions for a manual cut.
	// invalid carries the validation failure of the previous proposal,
	// or nil on the first attempt, so the operator can be told why they
	// are being re-prompted.
	ProposeCuts(sig *signal.Signal, invalid error) ([]int, error)

	// ConfirmCuts presents a validated manual cut. Returning false
	// restarts manual cutting from an empty proposal.
	ConfirmCuts(sig *signal.Signal, bounds detect.BoundarySet) (bool, error)
}

// Outcome is the terminal result of one record's session.
type Outcome struct {
	Accepted   bool
	Manual     bool
	Boundaries detect.BoundarySet
	Parameters detect.Parameters
}

// Session runs the adjustment loop for records one at a time. The zero
// value is not usable; construct with New.
type Session struct {
	op     Operator
	source signal.Source
	anchor bool
}

// New builds a session. When anchor is set, accepted automatic detections
// are extended with the record's first and last sample so cycles span the
// whole signal. Manual cuts are taken verbatim.
func New(op Operator, source signal.Source, anchor bool) *Session {
	return &Session{op: op, source: source, anchor: anchor}
}

// Run processes one record to a terminal state. Every transition out of
// Reviewing requires an explicit operator decision: there are no timeouts
// and no auto-accept. An error from the Operator (e.g. closed input)
// aborts the record.
func (s *Session) Run(sig *signal.Signal, params detect.Parameters) (Outcome, error) {
	values := sig.Series(s.source)

	state := StateDetecting
	var bounds detect.BoundarySet
	manual := false

	for {
		switch state {
		case StateDetecting:
			bounds = detect.Detect(values, sig.FS, params)
			state = StateReviewing

		case StateReviewing:
			d, err := s.op.Review(sig, params, bounds)
			if err != nil {
				return Outcome{}, fmt.Errorf("review of %q: %w", sig.Name, err)
			}
			switch d.Kind {
			case DecisionAccept:
				state = StateAccepted
			case DecisionAdjust:
				if err := d.Parameters.Validate(); err != nil {
					return Outcome{}, fmt.Errorf("adjusted parameters for %q: %w", sig.Name, err)
				}
				params = d.Parameters
				state = StateDetecting
			case DecisionManual:
				state = StateManual
			case DecisionAbort:
				state = StateAborted
			default:
				return Outcome{}, fmt.Errorf("unknown decision kind %d", d.Kind)
			}

		case StateManual:
			cuts, err := s.runManual(sig)
			if err != nil {
				return Outcome{}, err
			}
			bounds = cuts
			manual = true
			state = StateAccepted

		case StateAccepted:
			if s.anchor && !manual {
				bounds = detect.AnchorEndpoints(bounds, sig.Len())
			}
			return Outcome{
				Accepted:   true,
				Manual:     manual,
				Boundaries: bounds,
				Parameters: params,
			}, nil

		case StateAborted:
			return Outcome{}, nil
		}
	}
}

// runManual loops proposal -> validation -> confirmation until the
// operator accepts a cut. Rejecting a confirmed proposal discards it
// entirely; old and new proposals are never merged.
func (s *Session) runManual(sig *signal.Signal) (detect.BoundarySet, error) {
	var invalid error
	for {
		proposed, err := s.op.ProposeCuts(sig, invalid)
		if err != nil {
			return nil, fmt.Errorf("manual cut of %q: %w", sig.Name, err)
		}

		cuts, cutErr := detect.Cut(sig.Len(), proposed)
		if cutErr != nil {
			invalid = cutErr
			continue
		}

		ok, err := s.op.ConfirmCuts(sig, cuts)
		if err != nil {
			return nil, fmt.Errorf("manual cut confirmation of %q: %w", sig.Name, err)
		}
		if ok {
			return cuts, nil
		}
		invalid = nil
	}
}
