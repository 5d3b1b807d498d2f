package pagerange

import (
	"errors"
	"reflect"
	"testing"

	pdferrors "github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		spans  string
		total  int
		ranges []PageRange
		pages  []int
	}{
		{
			name:   "single index",
			spans:  "0",
			total:  3,
			ranges: []PageRange{{0, 0}},
			pages:  []int{0},
		},
		{
			name:   "range and index",
			spans:  "0-2,5",
			total:  10,
			ranges: []PageRange{{0, 2}, {5, 5}},
			pages:  []int{0, 1, 2, 5},
		},
		{
			name:   "open ended range",
			spans:  "3-",
			total:  5,
			ranges: []PageRange{{3, 4}},
			pages:  []int{3, 4},
		},
		{
			name:   "whitespace and empty parts",
			spans:  " 1 , ,2 - 3 ",
			total:  5,
			ranges: []PageRange{{1, 1}, {2, 3}},
			pages:  []int{1, 2, 3},
		},
		{
			name:   "overlap is deduplicated and sorted",
			spans:  "4,1-3,2",
			total:  5,
			ranges: []PageRange{{4, 4}, {1, 3}, {2, 2}},
			pages:  []int{1, 2, 3, 4},
		},
		{
			name:   "end clamped to last page",
			spans:  "1-99",
			total:  3,
			ranges: []PageRange{{1, 2}},
			pages:  []int{1, 2},
		},
		{
			name:   "out of range index dropped",
			spans:  "0,7",
			total:  2,
			ranges: []PageRange{{0, 0}},
			pages:  []int{0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranges, err := Parse(tt.spans, tt.total)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.spans, err)
			}
			if !reflect.DeepEqual(ranges, tt.ranges) {
				t.Errorf("Parse(%q) = %v, want %v", tt.spans, ranges, tt.ranges)
			}
			if pages := Pages(ranges); !reflect.DeepEqual(pages, tt.pages) {
				t.Errorf("Pages() = %v, want %v", pages, tt.pages)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		spans string
		total int
	}{
		{"empty", "", 3},
		{"blank", "   ", 3},
		{"no pages", "0", 0},
		{"not a number", "a", 3},
		{"negative", "-1", 3},
		{"reversed range", "3-1", 5},
		{"nothing in range", "5-9", 3},
		{"garbage end", "1-x", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.spans, tt.total)
			if err == nil {
				t.Fatalf("Parse(%q, %d) should fail", tt.spans, tt.total)
			}
			if !errors.Is(err, pdferrors.ErrInvalidArgument) {
				t.Errorf("Expected invalid argument error, got %v", err)
			}
		})
	}
}
