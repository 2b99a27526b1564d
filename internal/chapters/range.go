package chapters

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var ErrInvalidRange = errors.New("invalid chapter range")

// Range is an inclusive chapter-number range.
type Range struct {
	Start int
	End   int
}

func (r Range) Len() int {
	if r.End < r.Start {
		return 0
	}

	return r.End - r.Start + 1
}

// Contains reports whether n lies inside r.
func (r Range) Contains(n int) bool {
	return n >= r.Start && n <= r.End
}

// Resolve applies the CLI conventions to start/end: start below 1 becomes 1,
// end -1 (or 0) means "up to total", and end is clamped to total when total
// is known.
func Resolve(start, end, total int) (Range, error) {
	if start < 1 {
		start = 1
	}
	if end <= 0 {
		end = total
	}
	if total > 0 && end > total {
		end = total
	}

	if end < start {
		return Range{Start: start, End: end}, fmt.Errorf("%w: end %d is before start %d", ErrInvalidRange, end, start)
	}

	return Range{Start: start, End: end}, nil
}

// ParseSelection parses "7", "1-5" or "1,3,10-12" into a sorted, de-duplicated
// list of chapter numbers.
func ParseSelection(s string) ([]int, error) {
	seen := map[int]bool{}

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		lo, hi, isRange := strings.Cut(part, "-")
		if !isRange {
			hi = lo
		}

		a, err1 := atoi(lo)
		b, err2 := atoi(hi)
		if err1 != nil || err2 != nil || a <= 0 || b < a {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRange, part)
		}

		for n := a; n <= b; n++ {
			seen[n] = true
		}
	}

	if len(seen) == 0 {
		return nil, fmt.Errorf("%w: empty selection", ErrInvalidRange)
	}

	out := make([]int, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Ints(out)

	return out, nil
}

func atoi(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
