package ingest

// rangeMarginBlocks is subtracted from each sub-range's upper bound when a
// replay is wider than the configured batch size. The next sub-range starts
// right after, so the union still covers every block.
const rangeMarginBlocks = 10

// Range is one closed replay block range.
type Range struct {
	From uint64
	To   uint64
}

// splitRange cuts [from, to] into sub-ranges no wider than maxSpan. A
// maxSpan of 0 disables splitting. Sub-ranges are strictly increasing,
// gapless and non-overlapping.
func splitRange(from, to, maxSpan uint64) []Range {
	if maxSpan == 0 || to-from <= maxSpan {
		return []Range{{From: from, To: to}}
	}

	var ranges []Range
	lo := from
	for {
		if to-lo <= maxSpan {
			ranges = append(ranges, Range{From: lo, To: to})
			return ranges
		}
		hi := lo + maxSpan - rangeMarginBlocks
		ranges = append(ranges, Range{From: lo, To: hi})
		lo = hi + 1
	}
}
