// Package scenario loads a declarative YAML description of device types,
// devices, memory regions, watchpoints, and script/command actions into
// the shapes needed to populate a devicesim.System. Callback actions and
// rule predicates cannot be serialized and are bound by client Go code
// after a Scenario is loaded.
package scenario

import (
	"io/ioutil"
	"os"

	"github.com/creasty/defaults"
	"github.com/imdario/mergo"
	"github.com/mitchellh/mapstructure"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/deviceforge/devicesim/simerrs"
)

// EnvScenarioPath names the environment variable that supplies the file
// path when Load is called with an empty path.
const EnvScenarioPath = "DEVICESIM_SCENARIO_PATH"

// Scenario is the top-level, file-decodable description of a simulated
// system. It mirrors the device/memio/monitor/action vocabulary but in a
// serializable, YAML-friendly shape.
type Scenario struct {
	// Version is the scenario file format's major version.
	Version int `yaml:"version,omitempty" default:"1"`

	// DeviceTypes are the device-type names this scenario expects the
	// host program to have registered (with their Ops) before devices of
	// that type are created; the scenario only carries metadata about them.
	DeviceTypes []DeviceType `yaml:"deviceTypes,omitempty"`

	// Devices are instances to create when the scenario is applied (see
	// Apply); Load itself only decodes them.
	Devices []Device `yaml:"devices,omitempty"`
}

// DeviceType is metadata about a device type named elsewhere in code via
// device.Registry.RegisterType; the scenario does not itself carry Go
// callbacks.
type DeviceType struct {
	Name string            `yaml:"name"`
	Info string            `yaml:"info,omitempty"`
	Tags map[string]string `yaml:"tags,omitempty"`
}

// Device is one device instance to create, along with the regions,
// watchpoints, and actions attached to it.
type Device struct {
	Name    string                 `yaml:"name"`
	Type    string                 `yaml:"type"`
	Config  map[string]interface{} `yaml:"config,omitempty"`
	Regions []Region               `yaml:"regions,omitempty"`
}

// Region describes a memory region to attach to a device.
type Region struct {
	Name        string       `yaml:"name"`
	Base        uint64       `yaml:"base"`
	Size        uint64       `yaml:"size"`
	Flags       string       `yaml:"flags,omitempty" default:"rw"`
	Watchpoints []Watchpoint `yaml:"watchpoints,omitempty"`
}

// Watchpoint describes a watchpoint over a region and the actions bound
// to it by name (resolved against the Actions catalog at bind time).
type Watchpoint struct {
	Addr    uint64   `yaml:"addr"`
	Size    int      `yaml:"size,omitempty" default:"1"`
	Mode    string   `yaml:"mode,omitempty" default:"access"`
	Value   uint64   `yaml:"value,omitempty"`
	Enabled bool     `yaml:"enabled,omitempty" default:"true"`
	Actions []string `yaml:"actions,omitempty"`
}

// ActionSpec describes a SCRIPT or COMMAND action, keyed by name so that
// Watchpoint.Actions can reference it. Callback actions have no file
// representation and must be created and bound by the host program.
type ActionSpec struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"` // "script" or "command"
	Path string `yaml:"path,omitempty"`
	Cmd  string `yaml:"cmd,omitempty"`
}

// File is the full on-disk document: a Scenario plus its named action
// catalog.
type File struct {
	Scenario `yaml:",inline"`
	Actions  []ActionSpec `yaml:"actions,omitempty"`
}

// Load reads and decodes the scenario file at path, applying field
// defaults, then merges overrides on top (overrides win on conflict).
// If path is empty, EnvScenarioPath is consulted; Load fails if neither
// yields a usable path.
func Load(path string, overrides *File) (*File, error) {
	if path == "" {
		path = os.Getenv(EnvScenarioPath)
	}
	if path == "" {
		return nil, simerrs.NewInvalidArgumentError("scenario: no path given and " + EnvScenarioPath + " is unset")
	}

	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	if err := defaults.Set(&f); err != nil {
		return nil, err
	}

	if overrides != nil {
		if err := mergo.Merge(&f, overrides, mergo.WithOverride, mergo.WithAppendSlice); err != nil {
			return nil, err
		}
	}

	log.WithFields(log.Fields{
		"path": path, "devices": len(f.Devices), "actions": len(f.Actions),
	}).Debug("[scenario] loaded scenario file")
	return &f, nil
}

// DecodeConfig decodes a Device's free-form Config map into a typed
// struct pointed to by out, for device.Ops.Create implementations that
// want strongly-typed fields instead of map[string]interface{} lookups.
func DecodeConfig(data map[string]interface{}, out interface{}) error {
	return mapstructure.Decode(data, out)
}
