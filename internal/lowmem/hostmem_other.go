//go:build !linux

package lowmem

import "github.com/pbnjay/memory"

func hostAvailableMemory() uint64 {
	return memory.FreeMemory()
}
