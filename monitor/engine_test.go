package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deviceforge/devicesim/memio"
	"github.com/deviceforge/devicesim/simerrs"
)

type recordingExecutor struct {
	calls []uint32
}

func (e *recordingExecutor) Execute(id uint32, ctx Context) error {
	e.calls = append(e.calls, id)
	return nil
}

func testRegion() *memio.Region {
	r := &memio.Region{Name: "regs", Device: "d1", BaseAddr: 0x1000, Size: 16, Flags: memio.Read | memio.Write}
	return r
}

func TestAddWatchpoint_InvalidSize(t *testing.T) {
	e := NewEngine()
	r := testRegion()

	_, err := e.AddWatchpoint(r, 0x1000, 0, ModeWrite, 0)
	require.Error(t, err)

	_, err = e.AddWatchpoint(r, 0x1000, 9, ModeWrite, 0)
	require.Error(t, err)

	_, err = e.AddWatchpoint(nil, 0x1000, 4, ModeWrite, 0)
	require.Error(t, err)
}

func TestIDUniqueness(t *testing.T) {
	e := NewEngine()
	r := testRegion()

	seen := map[uint32]bool{}
	for i := 0; i < 50; i++ {
		id, err := e.AddWatchpoint(r, 0x1000, 1, ModeWrite, 0)
		require.NoError(t, err)
		require.NotZero(t, id)
		assert.False(t, seen[id], "ids must not repeat")
		seen[id] = true
	}
}

func TestWriteFiresWriteWatchpoint(t *testing.T) {
	e := NewEngine()
	exec := &recordingExecutor{}
	e.SetExecutor(exec)
	r := testRegion()

	wpID, err := e.AddWatchpoint(r, 0x1000, 4, ModeWrite, 0)
	require.NoError(t, err)
	require.NoError(t, e.BindAction(wpID, 7))

	e.Notify(r, 0x1000, 4, 0x12345678, memio.AccessWrite)

	assert.Equal(t, []uint32{7}, exec.calls)
}

func TestValueGatedWatchpoint(t *testing.T) {
	e := NewEngine()
	exec := &recordingExecutor{}
	e.SetExecutor(exec)
	r := testRegion()

	wpID, err := e.AddWatchpoint(r, 0x1000, 2, ModeValueWrite, 30)
	require.NoError(t, err)
	require.NoError(t, e.BindAction(wpID, 1))

	e.Notify(r, 0x1000, 2, 20, memio.AccessWrite)
	assert.Empty(t, exec.calls, "non-matching value must not fire")

	e.Notify(r, 0x1000, 2, 30, memio.AccessWrite)
	assert.Equal(t, []uint32{1}, exec.calls)
}

func TestDisableEnableCycle(t *testing.T) {
	e := NewEngine()
	exec := &recordingExecutor{}
	e.SetExecutor(exec)
	r := testRegion()

	wpID, err := e.AddWatchpoint(r, 0, 4, ModeWrite, 0)
	require.NoError(t, err)
	require.NoError(t, e.BindAction(wpID, 1))

	e.Notify(r, 0, 4, 1, memio.AccessWrite)
	assert.Len(t, exec.calls, 1)

	require.NoError(t, e.Disable(wpID))
	e.Notify(r, 0, 4, 2, memio.AccessWrite)
	assert.Len(t, exec.calls, 1, "disabled watchpoint must not fire")

	require.NoError(t, e.Enable(wpID))
	e.Notify(r, 0, 4, 3, memio.AccessWrite)
	assert.Len(t, exec.calls, 2)
}

func TestOverlapMatching_NoContainmentRequired(t *testing.T) {
	e := NewEngine()
	exec := &recordingExecutor{}
	e.SetExecutor(exec)
	r := testRegion()

	// watchpoint over [0x1002, 0x1006), access is [0x1000, 0x1004) -- partial overlap
	wpID, err := e.AddWatchpoint(r, 0x1002, 4, ModeWrite, 0)
	require.NoError(t, err)
	require.NoError(t, e.BindAction(wpID, 1))

	e.Notify(r, 0x1000, 4, 1, memio.AccessWrite)
	assert.Len(t, exec.calls, 1)
}

func TestModeAccessMatchesReadAndWrite(t *testing.T) {
	e := NewEngine()
	exec := &recordingExecutor{}
	e.SetExecutor(exec)
	r := testRegion()

	wpID, err := e.AddWatchpoint(r, 0, 4, ModeAccess, 0)
	require.NoError(t, err)
	require.NoError(t, e.BindAction(wpID, 1))

	e.Notify(r, 0, 4, 0, memio.AccessRead)
	e.Notify(r, 0, 4, 0, memio.AccessWrite)
	assert.Len(t, exec.calls, 2)
}

func TestFiringOrder_MatchesInsertionOrder(t *testing.T) {
	e := NewEngine()
	exec := &recordingExecutor{}
	e.SetExecutor(exec)
	r := testRegion()

	wp1, err := e.AddWatchpoint(r, 0, 4, ModeWrite, 0)
	require.NoError(t, err)
	wp2, err := e.AddWatchpoint(r, 0, 4, ModeWrite, 0)
	require.NoError(t, err)
	wp3, err := e.AddWatchpoint(r, 0, 4, ModeWrite, 0)
	require.NoError(t, err)

	require.NoError(t, e.BindAction(wp2, 20))
	require.NoError(t, e.BindAction(wp1, 10))
	require.NoError(t, e.BindAction(wp3, 30))

	e.Notify(r, 0, 4, 1, memio.AccessWrite)
	assert.Equal(t, []uint32{10, 20, 30}, exec.calls, "firing order follows watchpoint insertion order")
}

func TestBindAction_Idempotent(t *testing.T) {
	e := NewEngine()
	r := testRegion()

	wpID, err := e.AddWatchpoint(r, 0, 4, ModeWrite, 0)
	require.NoError(t, err)

	require.NoError(t, e.BindAction(wpID, 1))
	require.NoError(t, e.BindAction(wpID, 1))

	wp := e.watchpoints[wpID]
	assert.Equal(t, []uint32{1}, wp.actions)
}

func TestUnbindAction_NotBound(t *testing.T) {
	e := NewEngine()
	r := testRegion()

	wpID, err := e.AddWatchpoint(r, 0, 4, ModeWrite, 0)
	require.NoError(t, err)

	err = e.UnbindAction(wpID, 99)
	require.Error(t, err)
	assert.IsType(t, &simerrs.NotFoundError{}, err)
}

func TestMatchCap_DropsExcessMatches(t *testing.T) {
	e := NewEngine()
	e.SetMaxMatches(2)
	exec := &recordingExecutor{}
	e.SetExecutor(exec)
	r := testRegion()

	wpID, err := e.AddWatchpoint(r, 0, 4, ModeWrite, 0)
	require.NoError(t, err)
	for i := uint32(1); i <= 5; i++ {
		require.NoError(t, e.BindAction(wpID, i))
	}

	e.Notify(r, 0, 4, 1, memio.AccessWrite)
	assert.Len(t, exec.calls, 2, "notification must enforce the match cap")
}

func TestRemoveWatchpointsForRegion(t *testing.T) {
	e := NewEngine()
	r1 := testRegion()
	r2 := &memio.Region{Name: "other", Device: "d1", BaseAddr: 0, Size: 4, Flags: memio.Read | memio.Write}

	wp1, err := e.AddWatchpoint(r1, 0, 4, ModeWrite, 0)
	require.NoError(t, err)
	wp2, err := e.AddWatchpoint(r2, 0, 4, ModeWrite, 0)
	require.NoError(t, err)

	removed := e.RemoveWatchpointsForRegion(r1)
	assert.Equal(t, []uint32{wp1}, removed)

	_, _, _, _, err = e.GetInfo(wp1)
	assert.Error(t, err)
	_, _, _, _, err = e.GetInfo(wp2)
	assert.NoError(t, err)
}

func TestRecentFires_RecordsHistory(t *testing.T) {
	e := NewEngine()
	exec := &recordingExecutor{}
	e.SetExecutor(exec)
	r := testRegion()

	wpID, err := e.AddWatchpoint(r, 0, 4, ModeWrite, 0)
	require.NoError(t, err)
	require.NoError(t, e.BindAction(wpID, 1))

	e.Notify(r, 0, 4, 99, memio.AccessWrite)

	fires := e.RecentFires(wpID)
	require.Len(t, fires, 1)
	assert.Equal(t, uint64(99), fires[0].Context.Value)
	assert.Equal(t, []uint32{1}, fires[0].Actions)
}
