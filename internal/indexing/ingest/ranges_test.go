package ingest

import "testing"

func TestSplitRange_SingleWhenNarrow(t *testing.T) {
	ranges := splitRange(100, 300, 300)
	if len(ranges) != 1 {
		t.Fatalf("Expected 1 range, got %d", len(ranges))
	}
	if ranges[0].From != 100 || ranges[0].To != 300 {
		t.Errorf("Expected [100, 300], got [%d, %d]", ranges[0].From, ranges[0].To)
	}
}

func TestSplitRange_ZeroSpanDisablesSplitting(t *testing.T) {
	ranges := splitRange(0, 1000000, 0)
	if len(ranges) != 1 {
		t.Fatalf("Expected 1 range with span 0, got %d", len(ranges))
	}
}

func TestSplitRange_Coverage(t *testing.T) {
	// from=0, to=1000, maxSpan=300: each sub-range ends margin blocks
	// early, the next starts right after.
	ranges := splitRange(0, 1000, 300)

	want := []Range{
		{From: 0, To: 290},
		{From: 291, To: 581},
		{From: 582, To: 872},
		{From: 873, To: 1000},
	}
	if len(ranges) != len(want) {
		t.Fatalf("Expected %d ranges, got %d: %v", len(want), len(ranges), ranges)
	}
	for i, r := range ranges {
		if r != want[i] {
			t.Errorf("Range %d: expected [%d, %d], got [%d, %d]",
				i, want[i].From, want[i].To, r.From, r.To)
		}
	}

	// Gapless, strictly increasing, bounded by the original range.
	if ranges[0].From != 0 {
		t.Errorf("First range must start at 0, got %d", ranges[0].From)
	}
	if ranges[len(ranges)-1].To != 1000 {
		t.Errorf("Last range must end at 1000, got %d", ranges[len(ranges)-1].To)
	}
	for i := 1; i < len(ranges); i++ {
		if ranges[i].From != ranges[i-1].To+1 {
			t.Errorf("Gap or overlap between range %d and %d: %v", i-1, i, ranges)
		}
	}
	for _, r := range ranges {
		if r.To < r.From {
			t.Errorf("Inverted range [%d, %d]", r.From, r.To)
		}
		if r.To-r.From+1 > 300 {
			t.Errorf("Range [%d, %d] wider than maxSpan", r.From, r.To)
		}
	}
}
