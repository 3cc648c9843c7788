package spillsort

// Size estimation is a loose analytic model of the Go heap, good enough to
// decide when a batch is full. Tests hold it to within a factor of two of a
// measured footprint.
const (
	// stringHeader is the size of a string header (pointer + length).
	stringHeader = 16
	// allocAlign is the smallest allocator size-class granularity.
	allocAlign = 8
	// rowOverhead covers a row's slice header and per-record bookkeeping.
	rowOverhead = 64
)

// EstimateString approximates the memory held by s in a batch: its header
// plus the payload, rounded up to the allocator alignment.
func EstimateString(s string) int64 {
	n := int64(stringHeader + len(s))
	return (n + allocAlign - 1) / allocAlign * allocAlign
}

// EstimateRow approximates the memory held by a structured row as twice the
// length of its rendered text plus a fixed overhead.
func EstimateRow(fields []string) int64 {
	rendered := 0
	for i, f := range fields {
		if i > 0 {
			rendered++ // separator
		}
		rendered += len(f)
	}
	return int64(2*rendered) + rowOverhead
}

// EstimateBlockSize returns the number of estimated bytes a batch may
// accumulate before it is spilled. It prefers fewer, larger runs: the block
// is at least half the memory budget, and only grows beyond that when
// totalBytes spread over maxRuns runs requires it.
func EstimateBlockSize(totalBytes int64, maxRuns int, memory int64) int64 {
	if maxRuns < 1 {
		maxRuns = 1
	}
	var block int64
	if totalBytes > 0 {
		block = totalBytes / int64(maxRuns)
		if totalBytes%int64(maxRuns) != 0 {
			block++
		}
	}
	block = max(block, memory/2)
	return max(block, 1)
}
