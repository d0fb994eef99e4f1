package errors

import (
	"strconv"
	"strings"
	"unicode"
)

// MaxSize is the largest ground set a family can be encoded over.
const MaxSize = 32

// ParseSizeRange parses a size argument such as "4" or "3-5" into the
// inclusive list of sizes it denotes.
//
// Validation rules:
//   - Both bounds must be non-negative integers
//   - Start must not exceed end
//   - No bound may exceed MaxSize
func ParseSizeRange(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, New(ErrCodeInvalidRange, "size cannot be empty")
	}

	startStr, endStr, isRange := strings.Cut(s, "-")
	if !isRange {
		n, err := parseSize(s)
		if err != nil {
			return nil, err
		}
		return []int{n}, nil
	}
	if strings.Contains(endStr, "-") {
		return nil, New(ErrCodeInvalidRange, "invalid range format: %s", s)
	}

	start, err := parseSize(startStr)
	if err != nil {
		return nil, err
	}
	end, err := parseSize(endStr)
	if err != nil {
		return nil, err
	}
	if start > end {
		return nil, New(ErrCodeInvalidRange, "start %d is greater than end %d", start, end)
	}

	sizes := make([]int, 0, end-start+1)
	for n := start; n <= end; n++ {
		sizes = append(sizes, n)
	}
	return sizes, nil
}

func parseSize(s string) (int, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, New(ErrCodeInvalidRange, "invalid size: %q", s)
	}
	if n > MaxSize {
		return 0, New(ErrCodeInvalidRange, "size %d exceeds the maximum of %d", n, MaxSize)
	}
	return n, nil
}

// ValidateOutputPattern validates an output file pattern.
// A pattern used for several sizes must contain the {n} placeholder,
// otherwise every size would overwrite the same file.
func ValidateOutputPattern(pattern string, sizes int) error {
	if strings.TrimSpace(pattern) == "" {
		return New(ErrCodeInvalidInput, "output pattern cannot be empty")
	}
	for _, r := range pattern {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "output pattern contains invalid characters")
		}
	}
	if sizes > 1 && !strings.Contains(pattern, "{n}") {
		return New(ErrCodeInvalidInput, "output pattern %q needs a {n} placeholder for a size range", pattern)
	}
	return nil
}
