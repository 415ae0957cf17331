package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"tsh/internal/config"
	"tsh/internal/logger"
	"tsh/internal/shell"
)

type flags struct {
	help     bool
	verbose  bool
	noPrompt bool
}

var errUsage = errors.New("usage")

func parseFlags(args []string) (flags, error) {
	var f flags
	fs := pflag.NewFlagSet("tsh", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolVarP(&f.help, "help", "h", false, "print this message")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "print additional diagnostic information")
	fs.BoolVarP(&f.noPrompt, "no-prompt", "p", false, "do not emit a command prompt")

	if err := fs.Parse(args); err != nil {
		return f, fmt.Errorf("%w: %v", errUsage, err)
	}
	if f.help {
		return f, errUsage
	}
	return f, nil
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: shell [-hvp]")
	fmt.Fprintln(w, "   -h   print this message")
	fmt.Fprintln(w, "   -v   print additional diagnostic information")
	fmt.Fprintln(w, "   -p   do not emit a command prompt")
}

func run(args []string) int {
	f, err := parseFlags(args)
	if err != nil {
		usage(os.Stdout)
		return 1
	}

	cfg, err := config.Load(config.Path())
	if err != nil {
		fmt.Fprintf(os.Stdout, "Error loading config: %v\n", err)
		return 1
	}

	log, closeLog, err := logger.New(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stdout, "Error initializing logger: %v\n", err)
		return 1
	}
	defer closeLog()

	s, err := shell.New(cfg, shell.Options{
		Verbose:  f.verbose,
		NoPrompt: f.noPrompt,
		Logger:   log,
	})
	if err != nil {
		fmt.Fprintf(os.Stdout, "Error initializing shell: %v\n", err)
		return 1
	}

	if err := s.Run(context.Background()); err != nil {
		fmt.Fprintln(os.Stdout, err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:]))
}
