//go:build linux

package worker

import "golang.org/x/sys/unix"

// setThreadAffinity pins pid to the given CPU set. Errors (e.g. a
// sandboxed container that denies CAP_SYS_NICE) are the caller's to
// ignore; affinity is a best-effort scheduling hint, never required for
// correctness.
func setThreadAffinity(pid int, cpus []int) error {
	var set unix.CPUSet
	set.Zero()
	for _, c := range cpus {
		set.Set(c)
	}
	return unix.SchedSetaffinity(pid, &set)
}
