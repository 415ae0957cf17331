package shell

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"tsh/internal/jobs"
)

// runExternal launches argv as a new job. The child gate is held from before
// the launch until the job is in the table, so a child that exits at once is
// still found by the reaper.
func (s *Shell) runExternal(ctx context.Context, argv []string, background bool, cmdline string) error {
	if s.jobs.Full() {
		s.out.Println("Tried to create too many jobs")
		return nil
	}

	state := jobs.Foreground
	if background {
		state = jobs.Background
	}

	s.blockChildSignals()
	pid, err := s.launcher.Launch(argv)
	if err != nil {
		s.unblockChildSignals()
		if errors.Is(err, ErrCommandNotFound) {
			s.logger.Debug("launch failed", "argv0", argv[0], "error", err)
			return fmt.Errorf("%s: Command not found", argv[0])
		}
		return &FatalError{Op: "fork error", Err: err}
	}

	jid, err := s.jobs.Insert(pid, state, cmdline)
	if err == nil && s.verbose {
		s.out.Printf("Added job [%d] %d %s\n", jid, pid, cmdline)
	}
	s.unblockChildSignals()

	if err != nil {
		// Nothing may run outside the table; the reaper collects the corpse.
		s.logger.Warn("untracked child killed", "pid", pid, "error", err)
		_ = unix.Kill(-pid, unix.SIGKILL)
		s.out.Println("Tried to create too many jobs")
		return nil
	}
	s.logger.Debug("job started", "jid", jid, "pid", pid, "state", state)

	if background {
		s.out.Printf("[%d] (%d) %s\n", jid, pid, cmdline)
		return nil
	}
	s.waitForeground(ctx, pid)
	return nil
}

// waitForeground blocks until pid is no longer the foreground job, either
// because it stopped or because it was reaped.
func (s *Shell) waitForeground(ctx context.Context, pid int) {
	for {
		changed := s.jobs.Changes()
		job, ok := s.jobs.FindByPID(pid)
		if !ok || job.State != jobs.Foreground {
			return
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Shell) blockChildSignals() {
	s.childGate.Lock()
}

func (s *Shell) unblockChildSignals() {
	s.childGate.Unlock()
}
