package scenario

import (
	"strings"

	"github.com/deviceforge/devicesim/device"
	"github.com/deviceforge/devicesim/memio"
	"github.com/deviceforge/devicesim/monitor"
	"github.com/deviceforge/devicesim/simerrs"
)

// Apply walks a loaded File and creates its devices, regions, and
// watchpoints against the given component registries, binding
// SCRIPT/COMMAND actions by name. Callback actions referenced by name in
// f.Actions' watchpoints are not supported here -- bind those after
// Apply returns, via the returned watchpoint ids.
func Apply(f *File, devices DeviceCreator, mem MemoryCreator, mon WatchpointCreator, act ActionCreator) error {
	actionIDs := make(map[string]uint32, len(f.Actions))
	for _, spec := range f.Actions {
		id, err := createAction(act, spec)
		if err != nil {
			return err
		}
		actionIDs[spec.Name] = id
	}

	for _, dev := range f.Devices {
		if _, err := devices.CreateDevice(dev.Type, dev.Name, dev.Config); err != nil {
			return err
		}

		for _, rg := range dev.Regions {
			flags, err := parseFlags(rg.Flags)
			if err != nil {
				return err
			}
			region, err := mem.CreateRegion(dev.Name, rg.Name, rg.Base, rg.Size, flags)
			if err != nil {
				return err
			}

			for _, wp := range rg.Watchpoints {
				mode, err := parseMode(wp.Mode)
				if err != nil {
					return err
				}
				wpID, err := mon.AddWatchpoint(region, wp.Addr, wp.Size, mode, wp.Value)
				if err != nil {
					return err
				}
				if !wp.Enabled {
					if err := mon.Disable(wpID); err != nil {
						return err
					}
				}
				for _, actionName := range wp.Actions {
					actionID, ok := actionIDs[actionName]
					if !ok {
						return simerrs.NewNotFoundError("scenario action", actionName)
					}
					if err := mon.BindAction(wpID, actionID); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// DeviceCreator is the device.Registry surface Apply needs.
type DeviceCreator interface {
	CreateDevice(typeName, instanceName string, config map[string]interface{}) (*device.Device, error)
}

// MemoryCreator is the memio.Manager surface Apply needs.
type MemoryCreator interface {
	CreateRegion(device, name string, base, size uint64, flags memio.Flags) (*memio.Region, error)
}

// WatchpointCreator is the monitor.Engine surface Apply needs.
type WatchpointCreator interface {
	AddWatchpoint(region *memio.Region, addr uint64, size int, mode monitor.Mode, wpvalue uint64) (uint32, error)
	Disable(id uint32) error
	BindAction(id, actionID uint32) error
}

// ActionCreator is the action.Registry surface Apply needs for SCRIPT and
// COMMAND kinds. Callback actions have no scenario representation.
type ActionCreator interface {
	CreateScript(path string) (uint32, error)
	CreateCommand(cmd string) (uint32, error)
}

func createAction(act ActionCreator, spec ActionSpec) (uint32, error) {
	switch strings.ToLower(spec.Kind) {
	case "script":
		return act.CreateScript(spec.Path)
	case "command":
		return act.CreateCommand(spec.Cmd)
	default:
		return 0, simerrs.NewInvalidArgumentError("scenario: unknown action kind " + spec.Kind)
	}
}

func parseFlags(s string) (memio.Flags, error) {
	var f memio.Flags
	for _, c := range strings.ToLower(s) {
		switch c {
		case 'r':
			f |= memio.Read
		case 'w':
			f |= memio.Write
		case 'x':
			f |= memio.Exec
		default:
			return 0, simerrs.NewInvalidArgumentError("scenario: unknown region flag " + string(c))
		}
	}
	return f, nil
}

func parseMode(s string) (monitor.Mode, error) {
	switch strings.ToLower(s) {
	case "read":
		return monitor.ModeRead, nil
	case "write":
		return monitor.ModeWrite, nil
	case "access", "":
		return monitor.ModeAccess, nil
	case "value_write", "valuewrite":
		return monitor.ModeValueWrite, nil
	default:
		return 0, simerrs.NewInvalidArgumentError("scenario: unknown watchpoint mode " + s)
	}
}
