package shell

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"

	"tsh/internal/jobs"
)

// setupSignalHandling routes SIGCHLD, SIGINT, SIGTSTP and SIGQUIT to the
// signal goroutine. The returned func stops delivery.
func (s *Shell) setupSignalHandling(ctx context.Context) func() {
	ctx, cancel := context.WithCancel(ctx)
	signal.Notify(s.signalChan, unix.SIGCHLD, unix.SIGINT, unix.SIGTSTP, unix.SIGQUIT)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.handleSignals(ctx)
	}()

	return func() {
		signal.Stop(s.signalChan)
		cancel()
		<-done
	}
}

func (s *Shell) handleSignals(ctx context.Context) {
	// Children may have changed state before Notify was installed.
	s.reapChildren()

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-s.signalChan:
			s.handleSignal(sig)
		}
	}
}

func (s *Shell) handleSignal(sig os.Signal) {
	switch sig {
	case unix.SIGCHLD:
		s.reapChildren()
	case unix.SIGINT, unix.SIGTSTP:
		s.relayToForeground(sig.(syscall.Signal))
	case unix.SIGQUIT:
		s.out.Println("Terminating after receipt of SIGQUIT signal")
		s.reader.Close()
		s.exit(1)
	}
}

// reapChildren collects every child whose state has changed without waiting
// for the others. Signals coalesce, so one SIGCHLD may stand for many
// children.
func (s *Shell) reapChildren() {
	s.childGate.Lock()
	defer s.childGate.Unlock()

	for {
		var status unix.WaitStatus
		pid, err := unix.Wait4(-1, &status, unix.WNOHANG|unix.WUNTRACED, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil || pid <= 0 {
			return
		}
		s.childChanged(pid, status)
	}
}

func (s *Shell) childChanged(pid int, status unix.WaitStatus) {
	job, tracked := s.jobs.FindByPID(pid)

	switch {
	case status.Exited():
		s.jobs.Remove(pid)
		s.logger.Debug("job exited", "jid", job.JID, "pid", pid, "status", status.ExitStatus())

	case status.Signaled():
		if tracked {
			s.out.Printf("Job [%d] (%d) terminated by signal %d\n", job.JID, pid, int(status.Signal()))
		}
		s.jobs.Remove(pid)
		s.logger.Debug("job killed", "jid", job.JID, "pid", pid, "signal", status.Signal())

	case status.Stopped():
		if !tracked {
			s.logger.Warn("stopped child not in job table", "pid", pid)
			return
		}
		// Print before the state change releases a foreground waiter.
		s.out.Printf("Job [%d] (%d) stopped by signal %d\n", job.JID, pid, int(status.StopSignal()))
		if err := s.jobs.SetState(pid, jobs.Stopped); err != nil {
			s.logger.Warn("mark job stopped", "pid", pid, "error", err)
		}
		s.logger.Debug("job stopped", "jid", job.JID, "pid", pid, "signal", status.StopSignal())
	}
}

// relayToForeground forwards sig to the foreground job's process group. It
// reports whether a signal was sent.
func (s *Shell) relayToForeground(sig syscall.Signal) bool {
	pid := s.jobs.ForegroundPID()
	if pid == 0 {
		return false
	}
	if err := unix.Kill(-pid, sig); err != nil {
		s.logger.Warn("relay signal", "pid", pid, "signal", sig, "error", err)
		s.out.Printf("kill (%d): %v\n", pid, err)
		return false
	}
	s.logger.Debug("signal relayed", "pid", pid, "signal", sig)
	return true
}
