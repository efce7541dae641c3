package referral

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidFormat = errors.New("pincode must be 6 digits")
	ErrIneligible    = errors.New("pincode is outside the eligible area")
)

// Range is an inclusive pincode interval.
type Range struct {
	Min int
	Max int
}

func (r Range) Contains(n int) bool {
	return n >= r.Min && n <= r.Max
}

func (r Range) String() string {
	return fmt.Sprintf("%06d-%06d", r.Min, r.Max)
}

// Eligibility decides which pincodes may register as locals.
type Eligibility struct {
	ranges []Range
}

func NewEligibility(ranges ...Range) *Eligibility {
	return &Eligibility{ranges: append([]Range(nil), ranges...)}
}

// ParseRanges reads a comma separated list of "min-max" pairs, e.g.
// "560001-560300,561000-561999".
func ParseRanges(s string) ([]Range, error) {
	var out []Range
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, ok := strings.Cut(part, "-")
		if !ok {
			return nil, fmt.Errorf("pincode range %q: expected min-max", part)
		}
		min, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("pincode range %q: %w", part, err)
		}
		max, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return nil, fmt.Errorf("pincode range %q: %w", part, err)
		}
		if min > max {
			return nil, fmt.Errorf("pincode range %q: min is greater than max", part)
		}
		out = append(out, Range{Min: min, Max: max})
	}
	if len(out) == 0 {
		return nil, errors.New("no pincode ranges configured")
	}
	return out, nil
}

func (e *Eligibility) Ranges() []Range {
	return append([]Range(nil), e.ranges...)
}

// Validate returns ErrInvalidFormat unless pincode is exactly six ASCII
// digits, and ErrIneligible when it falls outside every configured range.
func (e *Eligibility) Validate(pincode string) error {
	if len(pincode) != 6 {
		return ErrInvalidFormat
	}
	n := 0
	for i := 0; i < len(pincode); i++ {
		c := pincode[i]
		if c < '0' || c > '9' {
			return ErrInvalidFormat
		}
		n = n*10 + int(c-'0')
	}
	for _, r := range e.ranges {
		if r.Contains(n) {
			return nil
		}
	}
	return ErrIneligible
}

// Describe renders the ranges for user-facing error messages.
func (e *Eligibility) Describe() string {
	parts := make([]string, len(e.ranges))
	for i, r := range e.ranges {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}
