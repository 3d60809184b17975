//go:build unix

package registry

import "golang.org/x/sys/unix"

// probe delivers signal 0, which checks existence and permission only.
func probe(pid int) error {
	return unix.Kill(pid, 0)
}

func terminate(pid int) error {
	return unix.Kill(pid, unix.SIGTERM)
}

func kill(pid int) error {
	return unix.Kill(pid, unix.SIGKILL)
}
