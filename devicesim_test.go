package devicesim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deviceforge/devicesim/device"
	"github.com/deviceforge/devicesim/memio"
	"github.com/deviceforge/devicesim/monitor"
)

// newTestSystem builds a System wired end-to-end and registers a bare
// "generic" device type with no lifecycle callbacks, for scenarios that
// only need a device to own a region.
func newTestSystem(t *testing.T) *System {
	t.Helper()
	s := New()
	require.NoError(t, s.Init())
	_, err := s.Devices().RegisterType("generic", device.Ops{}, nil)
	require.NoError(t, err)
	return s
}

func TestScenario_WriteFiresWatchpoint(t *testing.T) {
	s := newTestSystem(t)

	_, err := s.Devices().CreateDevice("generic", "sensor1", nil)
	require.NoError(t, err)

	region, err := s.Memory().CreateRegion("sensor1", "regs", 0x1000, 16, memio.Read|memio.Write)
	require.NoError(t, err)

	var fired bool
	actionID, err := s.Actions().CreateCallback(func(ctx monitor.Context, userData interface{}) error {
		fired = true
		return nil
	}, nil)
	require.NoError(t, err)

	wpID, err := s.Monitor().AddWatchpoint(region, 0x1000, 4, monitor.ModeWrite, 0)
	require.NoError(t, err)
	require.NoError(t, s.Monitor().BindAction(wpID, actionID))

	require.NoError(t, s.Memory().WriteU32(region, 0x1000, 7))
	assert.True(t, fired)
}

func TestScenario_ValueGatedWatchpointOnlyFiresOnMatch(t *testing.T) {
	s := newTestSystem(t)
	_, err := s.Devices().CreateDevice("generic", "sensor1", nil)
	require.NoError(t, err)

	region, err := s.Memory().CreateRegion("sensor1", "regs", 0, 4, memio.Read|memio.Write)
	require.NoError(t, err)

	var fireCount int
	actionID, err := s.Actions().CreateCallback(func(ctx monitor.Context, userData interface{}) error {
		fireCount++
		return nil
	}, nil)
	require.NoError(t, err)

	wpID, err := s.Monitor().AddWatchpoint(region, 0, 1, monitor.ModeValueWrite, 0xFF)
	require.NoError(t, err)
	require.NoError(t, s.Monitor().BindAction(wpID, actionID))

	require.NoError(t, s.Memory().WriteU8(region, 0, 0x01))
	require.NoError(t, s.Memory().WriteU8(region, 0, 0xFF))

	assert.Equal(t, 1, fireCount)
}

func TestScenario_DisableEnableCycle(t *testing.T) {
	s := newTestSystem(t)
	_, err := s.Devices().CreateDevice("generic", "sensor1", nil)
	require.NoError(t, err)

	region, err := s.Memory().CreateRegion("sensor1", "regs", 0, 4, memio.Read|memio.Write)
	require.NoError(t, err)

	var fireCount int
	actionID, err := s.Actions().CreateCallback(func(ctx monitor.Context, userData interface{}) error {
		fireCount++
		return nil
	}, nil)
	require.NoError(t, err)

	wpID, err := s.Monitor().AddWatchpoint(region, 0, 1, monitor.ModeWrite, 0)
	require.NoError(t, err)
	require.NoError(t, s.Monitor().BindAction(wpID, actionID))

	require.NoError(t, s.Memory().WriteU8(region, 0, 1))
	require.NoError(t, s.Monitor().Disable(wpID))
	require.NoError(t, s.Memory().WriteU8(region, 0, 2))
	require.NoError(t, s.Monitor().Enable(wpID))
	require.NoError(t, s.Memory().WriteU8(region, 0, 3))

	assert.Equal(t, 2, fireCount)
}

// TestScenario_CrossDeviceCopy models a watchpoint whose action callback
// copies a value it observes on one device's region into another
// device's region, the interaction pattern the whole core exists to
// support.
func TestScenario_CrossDeviceCopy(t *testing.T) {
	s := newTestSystem(t)
	_, err := s.Devices().CreateDevice("generic", "source", nil)
	require.NoError(t, err)
	_, err = s.Devices().CreateDevice("generic", "sink", nil)
	require.NoError(t, err)

	srcRegion, err := s.Memory().CreateRegion("source", "regs", 0, 4, memio.Read|memio.Write)
	require.NoError(t, err)
	sinkRegion, err := s.Memory().CreateRegion("sink", "regs", 0, 4, memio.Read|memio.Write)
	require.NoError(t, err)

	mem := s.Memory()
	actionID, err := s.Actions().CreateCallback(func(ctx monitor.Context, userData interface{}) error {
		return mem.WriteU32(sinkRegion, 0, uint32(ctx.Value))
	}, nil)
	require.NoError(t, err)

	wpID, err := s.Monitor().AddWatchpoint(srcRegion, 0, 4, monitor.ModeWrite, 0)
	require.NoError(t, err)
	require.NoError(t, s.Monitor().BindAction(wpID, actionID))

	require.NoError(t, mem.WriteU32(srcRegion, 0, 0xDEADBEEF))

	v, err := mem.ReadU32(sinkRegion, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), v)
}

func TestScenario_AlignmentRejection(t *testing.T) {
	s := newTestSystem(t)
	_, err := s.Devices().CreateDevice("generic", "sensor1", nil)
	require.NoError(t, err)

	region, err := s.Memory().CreateRegion("sensor1", "regs", 0, 8, memio.Read|memio.Write)
	require.NoError(t, err)

	_, err = s.Memory().ReadU32(region, 1)
	require.Error(t, err)
}

func TestScenario_PermissionRejection(t *testing.T) {
	s := newTestSystem(t)
	_, err := s.Devices().CreateDevice("generic", "sensor1", nil)
	require.NoError(t, err)

	region, err := s.Memory().CreateRegion("sensor1", "regs", 0, 8, memio.Read)
	require.NoError(t, err)

	err = s.Memory().WriteU8(region, 0, 1)
	require.Error(t, err)
}

func TestSystem_DestroyDevice_CascadesRegionsAndWatchpoints(t *testing.T) {
	s := newTestSystem(t)
	_, err := s.Devices().CreateDevice("generic", "sensor1", nil)
	require.NoError(t, err)

	region, err := s.Memory().CreateRegion("sensor1", "regs", 0, 4, memio.Read|memio.Write)
	require.NoError(t, err)

	wpID, err := s.Monitor().AddWatchpoint(region, 0, 4, monitor.ModeWrite, 0)
	require.NoError(t, err)

	require.NoError(t, s.DestroyDevice("sensor1"))

	_, err = s.Memory().FindRegion("sensor1", "regs")
	assert.Error(t, err, "destroying a device must cascade to its regions")

	_, _, _, _, err = s.Monitor().GetInfo(wpID)
	assert.Error(t, err, "destroying a device must unbind watchpoints over its regions")
}

func TestSystem_Cleanup_IsIdempotent(t *testing.T) {
	s := newTestSystem(t)
	_, err := s.Devices().CreateDevice("generic", "sensor1", nil)
	require.NoError(t, err)

	require.NoError(t, s.Cleanup())
	require.NoError(t, s.Cleanup())
}
