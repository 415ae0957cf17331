package shell

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/chzyer/readline"
)

// lineReader is satisfied by *readline.Instance and by promptReader.
type lineReader interface {
	Readline() (string, error)
	Close() error
}

// console serialises output from the read loop and the signal goroutine.
type console struct {
	mu sync.Mutex
	w  io.Writer
}

func newConsole(w io.Writer) *console {
	return &console{w: w}
}

func (c *console) Printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, format, args...)
}

func (c *console) Println(args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, args...)
}

// promptReader reads plain lines, used when stdin is not a terminal or the
// prompt is disabled.
type promptReader struct {
	in     *bufio.Reader
	out    *console
	prompt string
	eof    bool
}

func newPromptReader(in io.Reader, out *console, prompt string) *promptReader {
	return &promptReader{in: bufio.NewReader(in), out: out, prompt: prompt}
}

// Readline returns the next line without its terminator. A final line with
// no newline is returned before io.EOF.
func (r *promptReader) Readline() (string, error) {
	if r.prompt != "" {
		r.out.Printf("%s", r.prompt)
	}
	if r.eof {
		return "", io.EOF
	}

	line, err := r.in.ReadString('\n')
	if err == io.EOF && line != "" {
		r.eof = true
		err = nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (r *promptReader) Close() error {
	return nil
}

func newReadline(prompt string, historyLimit int, items []string) (*readline.Instance, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryLimit:    historyLimit,
		InterruptPrompt: "^C",
		// Ctrl-Z at the prompt would make readline suspend itself and wait
		// for a SIGCONT that never comes, since the shell catches SIGTSTP.
		FuncFilterInputRune: func(r rune) (rune, bool) {
			return r, r != readline.CharCtrlZ
		},
	})
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if err := rl.SaveHistory(item); err != nil {
			rl.Close()
			return nil, err
		}
	}
	return rl, nil
}
