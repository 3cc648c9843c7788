//go:build linux

package spillsort

import "golang.org/x/sys/unix"

// systemFreeMemory returns free plus buffer memory as reported by sysinfo(2).
func systemFreeMemory() (int64, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, err
	}
	return (int64(info.Freeram) + int64(info.Bufferram)) * int64(info.Unit), nil
}
