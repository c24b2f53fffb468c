package config

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "battcli/internal/errors"
)

// ParseStepList expands a whitespace separated list of cycle numbers and
// inclusive ranges, e.g. "3 4 5 8-9" becomes [3 4 5 8 9].
func ParseStepList(input string) ([]int, error) {
	var steps []int
	for _, token := range strings.Fields(input) {
		if strings.Contains(token, "-") {
			r, err := ParseCycleRange(token)
			if err != nil {
				return nil, err
			}
			if r.Start <= 0 || r.Start > r.End {
				return nil, apperrors.NewConfigError(
					fmt.Sprintf("cycle range %q must satisfy 0 < start <= end", token), nil)
			}
			steps = append(steps, r.Numbers()...)
			continue
		}

		n, err := strconv.Atoi(token)
		if err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("invalid cycle number %q", token), err)
		}
		steps = append(steps, n)
	}
	return steps, nil
}

// ParseCycleRange parses a "start-end" cycle window such as "3-5".
func ParseCycleRange(input string) (CycleRange, error) {
	input = strings.TrimSpace(input)
	start, end, ok := strings.Cut(input, "-")
	if !ok {
		return CycleRange{}, apperrors.NewConfigError(
			fmt.Sprintf("range format required (e.g. '3-5'), got %q", input), nil)
	}

	s, err := strconv.Atoi(strings.TrimSpace(start))
	if err != nil {
		return CycleRange{}, apperrors.NewConfigError(fmt.Sprintf("invalid range start in %q", input), err)
	}
	e, err := strconv.Atoi(strings.TrimSpace(end))
	if err != nil {
		return CycleRange{}, apperrors.NewConfigError(fmt.Sprintf("invalid range end in %q", input), err)
	}

	return CycleRange{Start: s, End: e}, nil
}

// isRangeInput reports whether a cycle selection string denotes one
// contiguous range rather than a step list.
func isRangeInput(input string) bool {
	input = strings.TrimSpace(input)
	return strings.Contains(input, "-") && !strings.Contains(input, " ")
}
