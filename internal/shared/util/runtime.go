package util

import "runtime"

// GetHeapAllocMB returns the live heap in whole megabytes.
func GetHeapAllocMB() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.HeapAlloc >> 20
}
