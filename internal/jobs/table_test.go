package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAssignsSequentialIDs(t *testing.T) {
	tbl := New(4)

	for i, pid := range []int{100, 101, 102} {
		jid, err := tbl.Insert(pid, Background, "sleep 1 &")
		require.NoError(t, err)
		assert.Equal(t, i+1, jid)
	}
	assert.Equal(t, 3, tbl.MaxJID())
	assert.Equal(t, 3, tbl.Len())
}

func TestInsertRejectsBadPID(t *testing.T) {
	tbl := New(4)
	_, err := tbl.Insert(0, Background, "x")
	assert.ErrorIs(t, err, ErrInvalidPID)
	assert.Equal(t, 0, tbl.Len())
}

func TestInsertFull(t *testing.T) {
	tbl := New(2)
	_, err := tbl.Insert(1, Background, "a")
	require.NoError(t, err)
	_, err = tbl.Insert(2, Background, "b")
	require.NoError(t, err)
	assert.True(t, tbl.Full())

	_, err = tbl.Insert(3, Background, "c")
	assert.ErrorIs(t, err, ErrFull)
	assert.Len(t, tbl.List(), 2)
}

func TestRemoveRebasesNextID(t *testing.T) {
	tbl := New(8)
	for _, pid := range []int{10, 11, 12} {
		_, err := tbl.Insert(pid, Background, "cmd")
		require.NoError(t, err)
	}

	assert.True(t, tbl.Remove(12))
	jid, err := tbl.Insert(13, Background, "cmd")
	require.NoError(t, err)
	assert.Equal(t, 3, jid, "next id must be max live id + 1")

	assert.True(t, tbl.Remove(11))
	jid, err = tbl.Insert(14, Background, "cmd")
	require.NoError(t, err)
	assert.Equal(t, 4, jid)

	assert.False(t, tbl.Remove(999))
	assert.False(t, tbl.Remove(0))
}

func TestWrapSkipsLiveIDs(t *testing.T) {
	tbl := New(4)
	for _, pid := range []int{1, 2, 3, 4} {
		_, err := tbl.Insert(pid, Background, "cmd")
		require.NoError(t, err)
	}
	require.True(t, tbl.Remove(2))
	require.True(t, tbl.Remove(3))

	jid, err := tbl.Insert(5, Background, "cmd")
	require.NoError(t, err)
	assert.Equal(t, 5, jid)

	// The counter has wrapped to 1, which is still held by pid 1.
	jid, err = tbl.Insert(6, Background, "cmd")
	require.NoError(t, err)
	assert.Equal(t, 2, jid)

	seen := map[int]bool{}
	for _, j := range tbl.List() {
		assert.False(t, seen[j.JID], "duplicate job id %d", j.JID)
		seen[j.JID] = true
	}
}

func TestSingleForeground(t *testing.T) {
	tbl := New(4)
	_, err := tbl.Insert(10, Foreground, "vi")
	require.NoError(t, err)

	_, err = tbl.Insert(11, Foreground, "top")
	assert.ErrorIs(t, err, ErrForegroundBusy)

	_, err = tbl.Insert(12, Background, "sleep 9 &")
	require.NoError(t, err)
	assert.ErrorIs(t, tbl.SetState(12, Foreground), ErrForegroundBusy)

	require.NoError(t, tbl.SetState(10, Stopped))
	require.NoError(t, tbl.SetState(12, Foreground))
	assert.Equal(t, 12, tbl.ForegroundPID())

	fg := 0
	for _, j := range tbl.List() {
		if j.State == Foreground {
			fg++
		}
	}
	assert.Equal(t, 1, fg)
}

func TestSetStateUnknownPID(t *testing.T) {
	tbl := New(4)
	assert.ErrorIs(t, tbl.SetState(42, Stopped), ErrNoSuchJob)
}

func TestLookups(t *testing.T) {
	tbl := New(4)
	jid, err := tbl.Insert(77, Background, "sleep 5 &")
	require.NoError(t, err)

	j, ok := tbl.FindByPID(77)
	require.True(t, ok)
	assert.Equal(t, jid, j.JID)
	assert.Equal(t, "Running", j.State.String())

	j, ok = tbl.FindByJID(jid)
	require.True(t, ok)
	assert.Equal(t, 77, j.PID)
	assert.Equal(t, jid, tbl.PIDToJID(77))

	_, ok = tbl.FindByJID(0)
	assert.False(t, ok)
	_, ok = tbl.FindByPID(-1)
	assert.False(t, ok)
	assert.Equal(t, 0, tbl.PIDToJID(78))
	assert.Equal(t, 0, tbl.ForegroundPID())
}

func TestListKeepsSlotOrder(t *testing.T) {
	tbl := New(4)
	for _, pid := range []int{5, 6, 7} {
		_, err := tbl.Insert(pid, Background, "cmd")
		require.NoError(t, err)
	}
	require.True(t, tbl.Remove(5))
	_, err := tbl.Insert(8, Background, "cmd")
	require.NoError(t, err)

	var pids []int
	for _, j := range tbl.List() {
		pids = append(pids, j.PID)
	}
	assert.Equal(t, []int{8, 6, 7}, pids)
}

func TestChangesClosedOnMutation(t *testing.T) {
	tbl := New(4)
	ch := tbl.Changes()

	select {
	case <-ch:
		t.Fatal("channel closed before any change")
	default:
	}

	_, err := tbl.Insert(9, Foreground, "cmd")
	require.NoError(t, err)

	select {
	case <-ch:
	default:
		t.Fatal("insert did not signal a change")
	}

	ch = tbl.Changes()
	require.NoError(t, tbl.SetState(9, Foreground))
	select {
	case <-ch:
		t.Fatal("no-op state change signalled")
	default:
	}

	require.True(t, tbl.Remove(9))
	select {
	case <-ch:
	default:
		t.Fatal("remove did not signal a change")
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Foreground", Foreground.String())
	assert.Equal(t, "Running", Background.String())
	assert.Equal(t, "Stopped", Stopped.String())
	assert.Equal(t, "Undefined", Undefined.String())
}
