package shell

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestLaunchOwnProcessGroup(t *testing.T) {
	l := &Launcher{}

	pid, err := l.Launch([]string{"sleep", "5"})
	require.NoError(t, err)
	require.Positive(t, pid)
	t.Cleanup(func() {
		_ = unix.Kill(-pid, unix.SIGKILL)
		_, _ = unix.Wait4(pid, nil, 0, nil)
	})

	pgid, err := unix.Getpgid(pid)
	require.NoError(t, err)
	assert.Equal(t, pid, pgid)

	require.NoError(t, unix.Kill(-pid, unix.SIGKILL))
	var status unix.WaitStatus
	wpid, err := unix.Wait4(pid, &status, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, pid, wpid)
	assert.True(t, status.Signaled())
}

func TestLaunchExitStatus(t *testing.T) {
	l := &Launcher{}

	pid, err := l.Launch([]string{"sh", "-c", "exit 3"})
	require.NoError(t, err)

	var status unix.WaitStatus
	_, err = unix.Wait4(pid, &status, 0, nil)
	require.NoError(t, err)
	assert.True(t, status.Exited())
	assert.Equal(t, 3, status.ExitStatus())
}

func TestLaunchNotFound(t *testing.T) {
	l := &Launcher{}
	dir := t.TempDir()

	script := filepath.Join(dir, "not-executable")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\n"), 0o644))

	for _, argv := range [][]string{
		{"tsh-no-such-command"},
		{filepath.Join(dir, "missing")},
		{script},
		{dir},
	} {
		_, err := l.Launch(argv)
		assert.ErrorIs(t, err, ErrCommandNotFound, "argv %v", argv)
	}
}

func TestLaunchEmpty(t *testing.T) {
	_, err := (&Launcher{}).Launch(nil)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCommandNotFound)
}
