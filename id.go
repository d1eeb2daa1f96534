package devicesim

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/google/uuid"
)

// runIdentity generates a run identifier for a System from tag, used to
// tag its log output and diagnostics. It is namespaced on tag (New
// passes a fresh random UUID, so each System gets its own id) plus,
// where available, a protected per-machine id -- the same two-component construction the teacher SDK uses to
// namespace plugin/device ids, adapted here for a single run-scoped tag
// rather than a device-id generator.
func runIdentity(tag string) uuid.UUID {
	components := []byte(tag)

	if mid, err := machineid.ProtectedID("devicesim"); err == nil {
		components = append(components, '.')
		components = append(components, mid...)
	}

	return uuid.NewSHA1(uuid.NameSpaceDNS, components)
}
