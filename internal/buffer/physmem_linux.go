//go:build linux

package buffer

import "golang.org/x/sys/unix"

// PhysicalMemory returns total RAM plus swap in bytes, or 0 when unknown.
func PhysicalMemory() uint64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0
	}
	unit := uint64(info.Unit)
	if unit == 0 {
		unit = 1
	}
	return (uint64(info.Totalram) + uint64(info.Totalswap)) * unit
}
