//go:build linux

package lowmem

import (
	"github.com/pbnjay/memory"
	"golang.org/x/sys/unix"
)

// hostAvailableMemory returns the free host memory in bytes, preferring the
// kernel's sysinfo counters.
func hostAvailableMemory() uint64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return memory.FreeMemory()
	}
	return uint64(info.Freeram) * uint64(info.Unit)
}
