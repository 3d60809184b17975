package supervisor

import (
	"os"
	"os/exec"

	"github.com/rileyhilliard/hoststats/internal/registry"
)

// InteractiveFlag makes a daemon run in the foreground of the spawned process.
const InteractiveFlag = "--interactive"

// ExecSpawner re-executes a hoststats binary as
// "<bin> <role> --interactive [args...]" in a new session with stdio
// attached to the null device.
type ExecSpawner struct {
	// Executable defaults to the running binary.
	Executable string
	// Env defaults to the current environment.
	Env []string
}

// Command builds the child command without starting it.
func (s ExecSpawner) Command(role registry.Role, args []string) (*exec.Cmd, error) {
	bin := s.Executable
	if bin == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, err
		}
		bin = exe
	}

	argv := append([]string{role.String(), InteractiveFlag}, args...)
	cmd := exec.Command(bin, argv...)
	cmd.Env = s.Env
	cmd.SysProcAttr = detachAttr()
	return cmd, nil
}

// Spawn starts the child and releases it so it outlives this process.
func (s ExecSpawner) Spawn(role registry.Role, args []string) (int, error) {
	cmd, err := s.Command(role, args)
	if err != nil {
		return 0, err
	}

	devnull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return 0, err
	}
	defer devnull.Close()
	cmd.Stdin = devnull
	cmd.Stdout = devnull
	cmd.Stderr = devnull

	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return pid, err
	}
	return pid, nil
}
