//go:build !linux

package spillsort

import (
	"fmt"
	"runtime"
)

func systemFreeMemory() (int64, error) {
	return 0, fmt.Errorf("spillsort: free memory query not supported on %s", runtime.GOOS)
}
