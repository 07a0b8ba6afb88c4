//go:build !linux

package buffer

func PhysicalMemory() uint64 { return 0 }
