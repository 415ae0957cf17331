// Package shell implements the read-eval loop and job control of tsh.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/chzyer/readline"

	"tsh/internal/config"
	"tsh/internal/history"
	"tsh/internal/jobs"
	"tsh/internal/logger"
	"tsh/internal/parser"
)

type Options struct {
	// Verbose prints a trace line for every job added to the table.
	Verbose bool
	// NoPrompt suppresses the prompt and line editing.
	NoPrompt bool
	Logger   *slog.Logger
	// Input and Output default to the process's stdin and stdout. Setting
	// Input disables line editing.
	Input    io.Reader
	Output   io.Writer
	Launcher *Launcher
}

type Shell struct {
	config     *config.Config
	history    *history.History
	jobs       *jobs.Table
	launcher   *Launcher
	logger     *slog.Logger
	out        *console
	reader     lineReader
	verbose    bool
	signalChan chan os.Signal

	// childGate is held while a child is launched and registered, and by the
	// reaper while it drains. It plays the part of blocking SIGCHLD.
	childGate sync.Mutex

	exit func(code int)
}

func New(cfg *config.Config, opts Options) (*Shell, error) {
	hist, err := history.New(cfg.HistoryFile, cfg.HistorySize)
	if err != nil {
		return nil, fmt.Errorf("error initializing history: %w", err)
	}

	s := &Shell{
		config:     cfg,
		history:    hist,
		jobs:       jobs.New(cfg.MaxJobs),
		launcher:   opts.Launcher,
		logger:     opts.Logger,
		verbose:    opts.Verbose,
		signalChan: make(chan os.Signal, 16),
		exit:       os.Exit,
	}
	if s.launcher == nil {
		s.launcher = NewLauncher()
	}
	if s.logger == nil {
		s.logger = logger.Discard()
	}

	if opts.Input == nil && !opts.NoPrompt && readline.DefaultIsTerminal() {
		rl, err := newReadline(cfg.Prompt, cfg.HistorySize, hist.GetAll())
		if err != nil {
			return nil, fmt.Errorf("error initializing readline: %w", err)
		}
		s.reader = rl
		s.out = newConsole(rl.Stdout())
		return s, nil
	}

	in, out := opts.Input, opts.Output
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	prompt := cfg.Prompt
	if opts.NoPrompt {
		prompt = ""
	}
	s.out = newConsole(out)
	s.reader = newPromptReader(in, s.out, prompt)
	return s, nil
}

// Jobs exposes the job table for inspection.
func (s *Shell) Jobs() *jobs.Table {
	return s.jobs
}

// Run reads and evaluates commands until quit, end of input, or a fatal
// error. Fatal errors are returned; the caller is expected to exit non-zero.
func (s *Shell) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := s.setupSignalHandling(ctx)
	defer stop()
	defer s.reader.Close()

	for {
		line, err := s.reader.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		} else if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return &FatalError{Op: "read error", Err: err}
		}

		if strings.TrimSpace(line) != "" {
			if err := s.history.Add(line); err != nil {
				s.logger.Warn("save history", "error", err)
			}
		}

		err = s.Execute(ctx, line)
		var fatal *FatalError
		switch {
		case err == nil:
		case errors.Is(err, errQuit):
			return nil
		case errors.As(err, &fatal):
			return err
		default:
			s.out.Println(err)
		}
	}
}

// Execute evaluates one command line. Built-ins run in the shell; anything
// else is launched as a job. Returned errors other than *FatalError are user
// errors whose text is meant to be printed as is.
func (s *Shell) Execute(ctx context.Context, line string) error {
	argv, background, err := parser.Parse(line)
	if err != nil {
		return err
	}
	if len(argv) == 0 {
		return nil
	}

	if ok, err := s.executeBuiltin(ctx, argv); ok {
		return err
	}
	return s.runExternal(ctx, argv, background, strings.TrimRight(line, "\r\n"))
}
