package shell

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"tsh/internal/jobs"
)

func (s *Shell) executeBuiltin(ctx context.Context, args []string) (bool, error) {
	switch args[0] {
	case "quit":
		return true, errQuit
	case "jobs":
		s.listJobs()
		return true, nil
	case "bg", "fg":
		return true, s.doBgFg(ctx, args)
	case "history":
		s.showHistory()
		return true, nil
	default:
		return false, nil
	}
}

func (s *Shell) listJobs() {
	for _, j := range s.jobs.List() {
		s.out.Printf("[%d] (%d) %s %s\n", j.JID, j.PID, j.State, j.CmdLine)
	}
}

func (s *Shell) showHistory() {
	for i, cmd := range s.history.GetAll() {
		s.out.Printf("%d: %s\n", i+1, cmd)
	}
}

// doBgFg continues a job, in the background for bg or in the foreground for
// fg. fg returns only once the job has stopped or terminated.
func (s *Shell) doBgFg(ctx context.Context, args []string) error {
	name := args[0]
	if len(args) < 2 {
		return fmt.Errorf("%s command requires PID or %%jobid argument", name)
	}

	job, err := s.resolveJob(name, args[1])
	if err != nil {
		return err
	}

	if err := unix.Kill(-job.PID, unix.SIGCONT); err != nil {
		s.logger.Warn("continue job", "jid", job.JID, "pid", job.PID, "error", err)
		return fmt.Errorf("%s: (%d): %w", name, job.PID, err)
	}

	state := jobs.Background
	if name == "fg" {
		state = jobs.Foreground
	}
	if err := s.jobs.SetState(job.PID, state); err != nil {
		// Reaped between the lookup and now.
		s.logger.Debug("job gone before resume", "jid", job.JID, "pid", job.PID, "error", err)
		return nil
	}
	s.logger.Debug("job resumed", "jid", job.JID, "pid", job.PID, "state", state)

	if state == jobs.Background {
		s.out.Printf("[%d] (%d) %s\n", job.JID, job.PID, job.CmdLine)
		return nil
	}
	s.waitForeground(ctx, job.PID)
	return nil
}

// resolveJob maps a %jobid or pid argument to a job.
func (s *Shell) resolveJob(name, arg string) (jobs.Job, error) {
	if rest, ok := strings.CutPrefix(arg, "%"); ok {
		jid, err := strconv.Atoi(rest)
		if err == nil {
			if job, found := s.jobs.FindByJID(jid); found {
				return job, nil
			}
		}
		return jobs.Job{}, fmt.Errorf("%s: No such job", arg)
	}

	if arg != "" && arg[0] >= '0' && arg[0] <= '9' {
		pid, err := strconv.Atoi(arg)
		if err != nil {
			return jobs.Job{}, fmt.Errorf("%s: argument must be a PID or %%jobid", name)
		}
		job, found := s.jobs.FindByPID(pid)
		if !found {
			return jobs.Job{}, fmt.Errorf("(%d): No such process", pid)
		}
		return job, nil
	}

	return jobs.Job{}, fmt.Errorf("%s: argument must be a PID or %%jobid", name)
}
