package detect

import (
	"fmt"
	"sort"
)

// OutOfRangeError reports a proposed boundary outside the signal.
type OutOfRangeError struct {
	Index  int
	Length int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("boundary index %d out of range [0, %d)", e.Index, e.Length)
}

// InsufficientBoundariesError reports that fewer than two distinct
// boundaries remain after deduplication. A cycle needs a start and an end.
type InsufficientBoundariesError struct {
	Count int
}

func (e *InsufficientBoundariesError) Error() string {
	return fmt.Sprintf("need at least 2 distinct boundaries, got %d", e.Count)
}

// Cut validates operator-proposed boundary indices against a signal of
// the given length. Proposals arrive in click order: unsorted, possibly
// duplicated. Range is checked first, in input order, so the first bad
// index wins; duplicates collapse silently. On success the returned set
// is deduplicated and sorted.
func Cut(length int, proposed []int) (BoundarySet, error) {
	for _, idx := range proposed {
		if idx < 0 || idx >= length {
			return nil, &OutOfRangeError{Index: idx, Length: length}
		}
	}

	seen := make(map[int]bool, len(proposed))
	out := make(BoundarySet, 0, len(proposed))
	for _, idx := range proposed {
		if seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
	}
	sort.Ints(out)

	if len(out) < 2 {
		return nil, &InsufficientBoundariesError{Count: len(out)}
	}
	return out, nil
}
