//go:build unix

package supervisor

import "syscall"

// detachAttr starts the child in its own session so terminal hangups and
// the parent's process group signals do not reach it.
func detachAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
