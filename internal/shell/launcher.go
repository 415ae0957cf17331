package shell

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"syscall"
)

// Launcher starts external programs, each in a process group of its own so
// that keyboard signals reach the shell rather than the job.
type Launcher struct {
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
	// Env is passed to the child; nil inherits the shell's environment.
	Env []string
}

func NewLauncher() *Launcher {
	return &Launcher{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Launch starts argv and returns the child's pid. The process handle is
// released immediately: children are reaped only by the shell's reaper.
//
// A missing or non-executable program yields ErrCommandNotFound and no
// process. Any other error means the process could not be created.
func (l *Launcher) Launch(argv []string) (int, error) {
	if len(argv) == 0 {
		return 0, errors.New("launch: empty command")
	}

	path, err := exec.LookPath(argv[0])
	if err != nil && !errors.Is(err, exec.ErrDot) {
		return 0, fmt.Errorf("%w: %v", ErrCommandNotFound, err)
	}

	cmd := &exec.Cmd{
		Path:        path,
		Args:        argv,
		Env:         l.Env,
		SysProcAttr: &syscall.SysProcAttr{Setpgid: true},
	}
	// Only *os.File values are handed over, so exec never starts copying
	// goroutines that would need a Wait.
	if l.Stdin != nil {
		cmd.Stdin = l.Stdin
	}
	if l.Stdout != nil {
		cmd.Stdout = l.Stdout
	}
	if l.Stderr != nil {
		cmd.Stderr = l.Stderr
	}
	if err := cmd.Start(); err != nil {
		if notRunnable(err) {
			return 0, fmt.Errorf("%w: %v", ErrCommandNotFound, err)
		}
		return 0, err
	}

	pid := cmd.Process.Pid
	_ = cmd.Process.Release()
	return pid, nil
}

func notRunnable(err error) bool {
	return errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, syscall.ENOEXEC) ||
		errors.Is(err, syscall.EISDIR)
}
