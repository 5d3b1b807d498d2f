// Package pagerange parses page span expressions such as "0-2,5,7-". Page
// indexes are 0-based.
package pagerange

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	pdferrors "github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/errors"
)

// PageRange is an inclusive range of page indexes
type PageRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Parse parses a comma separated list of indexes and ranges. A range with no
// end ("3-") runs to the last page. Ranges are clamped to [0, totalPages);
// ranges that fall entirely outside the document are dropped.
func Parse(spans string, totalPages int) ([]PageRange, error) {
	if strings.TrimSpace(spans) == "" {
		return nil, invalid("page spans cannot be empty")
	}
	if totalPages <= 0 {
		return nil, invalid("document has no pages")
	}

	var ranges []PageRange
	for _, part := range strings.Split(spans, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		r, err := parsePart(part, totalPages)
		if err != nil {
			return nil, err
		}

		if r.End >= totalPages {
			r.End = totalPages - 1
		}
		if r.Start > r.End {
			continue
		}
		ranges = append(ranges, r)
	}

	if len(ranges) == 0 {
		return nil, invalid(fmt.Sprintf("page spans %q select no page of a %d page document", spans, totalPages))
	}
	return ranges, nil
}

func parsePart(part string, totalPages int) (PageRange, error) {
	startText, endText, isRange := strings.Cut(part, "-")
	start, err := index(startText, part)
	if err != nil {
		return PageRange{}, err
	}
	if !isRange {
		return PageRange{Start: start, End: start}, nil
	}

	end := totalPages - 1
	if strings.TrimSpace(endText) != "" {
		if end, err = index(endText, part); err != nil {
			return PageRange{}, err
		}
	}
	if end < start {
		return PageRange{}, invalid(fmt.Sprintf("page span %q ends before it starts", part))
	}
	return PageRange{Start: start, End: end}, nil
}

func index(text, part string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 0 {
		return 0, invalid(fmt.Sprintf("invalid page span %q", part))
	}
	return n, nil
}

func invalid(msg string) error {
	return pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidArgument, msg)
}

// Pages returns the distinct indexes covered by ranges in ascending order
func Pages(ranges []PageRange) []int {
	var pages []int
	seen := make(map[int]bool)

	for _, r := range ranges {
		for p := r.Start; p <= r.End; p++ {
			if !seen[p] {
				pages = append(pages, p)
				seen[p] = true
			}
		}
	}

	sort.Ints(pages)
	return pages
}
