package spillsort

import (
	"errors"
	"math"
	"runtime"
	"runtime/debug"
)

// DefaultMemoryBudget is used when the available memory cannot be determined.
const DefaultMemoryBudget int64 = 64 << 20 // 64MB

var errNoHeadroom = errors.New("spillsort: heap is at or above the Go memory limit")

// AvailableMemory makes a best-effort guess at how many bytes a sort
// operation may buffer. When a Go memory limit is configured (GOMEMLIMIT or
// debug.SetMemoryLimit) the headroom below it is returned; otherwise the
// free memory reported by the operating system.
func AvailableMemory() (int64, error) {
	if limit := debug.SetMemoryLimit(-1); limit != math.MaxInt64 {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		free := limit - int64(ms.HeapAlloc)
		if free <= 0 {
			return 0, errNoHeadroom
		}
		return free, nil
	}
	return systemFreeMemory()
}
