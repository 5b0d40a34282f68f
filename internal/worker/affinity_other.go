//go:build !linux

package worker

// setThreadAffinity is a no-op outside Linux: Darwin and Windows expose
// CPU affinity through mechanisms outside golang.org/x/sys/unix's
// Linux-only SchedSetaffinity, and --set-thread-affinity is documented
// to silently do nothing where the platform doesn't support it.
func setThreadAffinity(pid int, cpus []int) error {
	return nil
}
