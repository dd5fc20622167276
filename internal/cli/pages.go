package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// parsePageRange converts a page range string to 0-based page indices.
// Supported formats: "" (all), "3" (single page), "1-5" (range), "1,3,5" (list).
func parsePageRange(spec string, total int) ([]int, error) {
	if spec == "" {
		indices := make([]int, total)
		for i := range indices {
			indices[i] = i
		}
		return indices, nil
	}

	var indices []int
	seen := make(map[int]bool)
	add := func(p int) {
		if !seen[p] {
			indices = append(indices, p-1)
			seen[p] = true
		}
	}

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "-")
		if !isRange {
			p, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid page number: %s", part)
			}
			if p < 1 || p > total {
				return nil, fmt.Errorf("page %d out of bounds (1-%d)", p, total)
			}
			add(p)
			continue
		}

		start, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("invalid page number: %s", lo)
		}
		end, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return nil, fmt.Errorf("invalid page number: %s", hi)
		}
		if start < 1 || end > total || start > end {
			return nil, fmt.Errorf("page range %d-%d out of bounds (1-%d)", start, end, total)
		}
		for p := start; p <= end; p++ {
			add(p)
		}
	}
	return indices, nil
}
