package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deviceforge/devicesim/simerrs"
)

func TestRegisterType_Duplicate(t *testing.T) {
	r := NewRegistry()
	_, err := r.RegisterType("thermostat", Ops{}, nil)
	require.NoError(t, err)

	_, err = r.RegisterType("thermostat", Ops{}, nil)
	require.Error(t, err)
	assert.IsType(t, &simerrs.AlreadyExistsError{}, err)
}

func TestUnregisterType_BusyWithLiveInstance(t *testing.T) {
	r := NewRegistry()
	_, err := r.RegisterType("thermostat", Ops{}, nil)
	require.NoError(t, err)

	_, err = r.CreateDevice("thermostat", "t1", nil)
	require.NoError(t, err)

	err = r.UnregisterType("thermostat")
	require.Error(t, err)
	assert.IsType(t, &simerrs.BusyError{}, err)

	require.NoError(t, r.DestroyDevice("t1"))
	require.NoError(t, r.UnregisterType("thermostat"))
}

func TestCreateDevice_NameUniqueness(t *testing.T) {
	r := NewRegistry()
	_, err := r.RegisterType("thermostat", Ops{}, nil)
	require.NoError(t, err)

	_, err = r.CreateDevice("thermostat", "t1", nil)
	require.NoError(t, err)

	_, err = r.CreateDevice("thermostat", "t1", nil)
	require.Error(t, err)
	assert.IsType(t, &simerrs.AlreadyExistsError{}, err)
}

func TestCreateDevice_UnknownType(t *testing.T) {
	r := NewRegistry()
	_, err := r.CreateDevice("nonexistent", "t1", nil)
	require.Error(t, err)
	assert.IsType(t, &simerrs.NotFoundError{}, err)
}

func TestCreateDevice_CreateCallbackFailure_NoPartialDevice(t *testing.T) {
	r := NewRegistry()
	_, err := r.RegisterType("flaky", Ops{
		Create: func(dev *Device, config map[string]interface{}) error {
			return assert.AnError
		},
	}, nil)
	require.NoError(t, err)

	_, err = r.CreateDevice("flaky", "f1", nil)
	require.Error(t, err)

	_, err = r.FindByName("f1")
	assert.Error(t, err, "a device must not be added when Create fails")
}

func TestDeviceLifecycle_CreateDestroyCallbacks(t *testing.T) {
	var created, destroyed bool
	r := NewRegistry()
	_, err := r.RegisterType("thermostat", Ops{
		Create: func(dev *Device, config map[string]interface{}) error {
			created = true
			dev.UserData = 42
			return nil
		},
		Destroy: func(dev *Device) error {
			destroyed = true
			return nil
		},
	}, nil)
	require.NoError(t, err)

	dev, err := r.CreateDevice("thermostat", "t1", nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 42, dev.UserData)

	require.NoError(t, r.DestroyDevice("t1"))
	assert.True(t, destroyed)

	_, err = r.FindByName("t1")
	assert.Error(t, err)
}

func TestIoctl_NotSupportedWhenNil(t *testing.T) {
	r := NewRegistry()
	_, err := r.RegisterType("thermostat", Ops{}, nil)
	require.NoError(t, err)
	_, err = r.CreateDevice("thermostat", "t1", nil)
	require.NoError(t, err)

	_, err = r.Ioctl("t1", 1, nil)
	require.Error(t, err)
	assert.IsType(t, &simerrs.NotSupportedError{}, err)
}
