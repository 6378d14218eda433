// Package signal holds the in-memory representation of one record's
// time-series data and the preparation steps applied before detection.
package signal

import "fmt"

// Source selects which series detection runs against.
type Source string

const (
	SourcePosition    Source = "position"
	SourceVelocity    Source = "velocity"
	SourceAbsVelocity Source = "abs_velocity"
)

// ParseSource validates a source name from config or CLI input.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourcePosition, SourceVelocity, SourceAbsVelocity:
		return Source(s), nil
	}
	return "", fmt.Errorf("invalid signal source %q (want position, velocity or abs_velocity)", s)
}

// Signal is one record's sample data. Immutable once built: preparation
// happens in New, detection and rendering only read from it.
type Signal struct {
	Name     string
	Position []float64
	Velocity []float64
	FS       float64 // sampling frequency in Hz
}

// New builds a prepared Signal. Velocity may be nil, in which case it is
// derived as the gradient of position. Both series are smoothed with a
// zero-phase first-order low-pass filter at smoothCutoffHz.
func New(name string, position, velocity []float64, fs float64) (*Signal, error) {
	if fs <= 0 {
		return nil, fmt.Errorf("sampling frequency must be positive, got %g", fs)
	}
	if len(position) == 0 {
		return nil, fmt.Errorf("record %q has no position samples", name)
	}
	if velocity != nil && len(velocity) != len(position) {
		return nil, fmt.Errorf("record %q: velocity length %d does not match position length %d",
			name, len(velocity), len(position))
	}
	if velocity == nil {
		velocity = Gradient(position)
	}

	return &Signal{
		Name:     name,
		Position: Lowpass(position, smoothCutoffHz, fs),
		Velocity: Lowpass(velocity, smoothCutoffHz, fs),
		FS:       fs,
	}, nil
}

// Len returns the number of samples.
func (s *Signal) Len() int { return len(s.Position) }

// Series returns the samples for the given detection source. The
// abs_velocity source allocates a rectified copy so the stored velocity
// stays untouched.
func (s *Signal) Series(src Source) []float64 {
	switch src {
	case SourceVelocity:
		return s.Velocity
	case SourceAbsVelocity:
		abs := make([]float64, len(s.Velocity))
		for i, v := range s.Velocity {
			if v < 0 {
				v = -v
			}
			abs[i] = v
		}
		return abs
	default:
		return s.Position
	}
}

// Gradient computes the sample-wise derivative using central differences,
// with one-sided differences at the ends.
func Gradient(data []float64) []float64 {
	n := len(data)
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	out[0] = data[1] - data[0]
	out[n-1] = data[n-1] - data[n-2]
	for i := 1; i < n-1; i++ {
		out[i] = (data[i+1] - data[i-1]) / 2
	}
	return out
}
