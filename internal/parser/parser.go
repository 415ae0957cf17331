// Package parser splits a command line into arguments.
package parser

import (
	"fmt"

	"github.com/kballard/go-shellquote"
)

// Parse tokenizes line with shell quoting rules. A trailing "&" argument is
// removed and reported as a background request. Blank input yields an empty
// argv.
func Parse(line string) (argv []string, background bool, err error) {
	argv, err = shellquote.Split(line)
	if err != nil {
		return nil, false, fmt.Errorf("parse %q: %w", line, err)
	}
	if n := len(argv); n > 0 && argv[n-1] == "&" {
		return argv[:n-1], true, nil
	}
	return argv, false, nil
}
