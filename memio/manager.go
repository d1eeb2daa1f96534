package memio

import (
	"encoding/binary"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/deviceforge/devicesim/simerrs"
)

// Notifier is implemented by the MonitorEngine. The Manager calls Notify
// exactly once per successful access (including once per aggregate
// buffer access), after the buffer mutation for writes, outside of the
// Manager's own lock.
type Notifier interface {
	Notify(region *Region, addr uint64, size int, value uint64, accessType AccessType)
}

// noopNotifier is used when a Manager is constructed without a Notifier,
// e.g. in isolated unit tests of the memory primitives.
type noopNotifier struct{}

func (noopNotifier) Notify(*Region, uint64, int, uint64, AccessType) {}

// Manager is the MemoryManager: the catalog of named regions and the
// width-specific read/write primitives that access them.
type Manager struct {
	mu       sync.RWMutex
	regions  map[string]*Region // keyed by "device/name"
	notifier Notifier
}

// NewManager creates a new, empty Manager. SetNotifier must be called
// before any access will produce watchpoint notifications; until then,
// accesses succeed but are not observed.
func NewManager() *Manager {
	return &Manager{
		regions:  make(map[string]*Region),
		notifier: noopNotifier{},
	}
}

// SetNotifier installs the MonitorEngine (or any compatible Notifier)
// that the Manager reports accesses to.
func (m *Manager) SetNotifier(n Notifier) {
	if n == nil {
		n = noopNotifier{}
	}
	m.mu.Lock()
	m.notifier = n
	m.mu.Unlock()
}

func regionKey(device, name string) string {
	return device + "/" + name
}

// CreateRegion creates a new, zero-initialized region owned by device.
// It fails on size == 0 or a name clash within the device.
func (m *Manager) CreateRegion(device, name string, base, size uint64, flags Flags) (*Region, error) {
	if size == 0 {
		return nil, simerrs.NewInvalidArgumentError("region size must be nonzero")
	}
	if name == "" {
		return nil, simerrs.NewInvalidArgumentError("region name must not be empty")
	}

	key := regionKey(device, name)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.regions[key]; exists {
		return nil, simerrs.NewAlreadyExistsError("region", key)
	}

	r := newRegion(device, name, base, size, flags)
	m.regions[key] = r

	log.WithFields(log.Fields{
		"device": device, "region": name, "base": base, "size": size, "flags": flags.String(),
	}).Debug("[memio] created region")
	return r, nil
}

// DestroyRegion removes a region from the catalog.
func (m *Manager) DestroyRegion(device, name string) error {
	key := regionKey(device, name)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.regions[key]; !exists {
		return simerrs.NewNotFoundError("region", key)
	}
	delete(m.regions, key)
	log.WithFields(log.Fields{"device": device, "region": name}).Debug("[memio] destroyed region")
	return nil
}

// DestroyRegionsForDevice removes every region owned by device and
// returns the set that was removed, for cascading cleanup (e.g. of
// watchpoints that reference them) by the facade.
func (m *Manager) DestroyRegionsForDevice(device string) []*Region {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed []*Region
	for key, r := range m.regions {
		if r.Device == device {
			removed = append(removed, r)
			delete(m.regions, key)
		}
	}
	return removed
}

// FindRegion looks up a region by owning device and name.
func (m *Manager) FindRegion(device, name string) (*Region, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, exists := m.regions[regionKey(device, name)]
	if !exists {
		return nil, simerrs.NewNotFoundError("region", regionKey(device, name))
	}
	return r, nil
}

// checkAccess validates range, permission, and (for width > 1) alignment
// for an access of size bytes at addr against region r.
func checkAccess(r *Region, addr uint64, size int, need Flags) error {
	if !r.contains(addr, size) {
		return simerrs.NewRangeError(r.Name, addr, size, r.BaseAddr, r.Size)
	}
	if !r.Flags.Has(need) {
		return simerrs.NewPermissionError(r.Name, addr, need.String())
	}
	if size == 2 || size == 4 || size == 8 {
		if addr%uint64(size) != 0 {
			return simerrs.NewAlignmentError(r.Name, addr, size)
		}
	}
	return nil
}

// readWidth reads `width` little-endian bytes from the region at addr,
// after validating range/permission/alignment, and reports the access
// via the configured Notifier.
func (m *Manager) readWidth(r *Region, addr uint64, width int) (uint64, error) {
	m.mu.Lock()
	if err := checkAccess(r, addr, width, Read); err != nil {
		m.mu.Unlock()
		return 0, err
	}
	off := r.offset(addr)
	buf := make([]byte, 8)
	copy(buf, r.data[off:off+uint64(width)])
	notifier := m.notifier
	m.mu.Unlock()

	value := binary.LittleEndian.Uint64(buf)
	notifier.Notify(r, addr, width, value, AccessRead)
	return value, nil
}

// writeWidth writes the low `width` bytes of value, little-endian, into
// the region at addr, after validating range/permission/alignment. The
// Notifier is invoked with the full, zero-extended 64-bit value after
// the buffer mutation.
func (m *Manager) writeWidth(r *Region, addr uint64, width int, value uint64) error {
	m.mu.Lock()
	if err := checkAccess(r, addr, width, Write); err != nil {
		m.mu.Unlock()
		return err
	}
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, value)
	off := r.offset(addr)
	copy(r.data[off:off+uint64(width)], buf[:width])
	notifier := m.notifier
	m.mu.Unlock()

	notifier.Notify(r, addr, width, value, AccessWrite)
	return nil
}

// ReadU8 reads one byte from the region at addr.
func (m *Manager) ReadU8(r *Region, addr uint64) (uint8, error) {
	v, err := m.readWidth(r, addr, 1)
	return uint8(v), err
}

// ReadU16 reads an aligned 2-byte little-endian value from the region at addr.
func (m *Manager) ReadU16(r *Region, addr uint64) (uint16, error) {
	v, err := m.readWidth(r, addr, 2)
	return uint16(v), err
}

// ReadU32 reads an aligned 4-byte little-endian value from the region at addr.
func (m *Manager) ReadU32(r *Region, addr uint64) (uint32, error) {
	v, err := m.readWidth(r, addr, 4)
	return uint32(v), err
}

// ReadU64 reads an aligned 8-byte little-endian value from the region at addr.
func (m *Manager) ReadU64(r *Region, addr uint64) (uint64, error) {
	return m.readWidth(r, addr, 8)
}

// WriteU8 writes one byte to the region at addr.
func (m *Manager) WriteU8(r *Region, addr uint64, value uint8) error {
	return m.writeWidth(r, addr, 1, uint64(value))
}

// WriteU16 writes an aligned 2-byte little-endian value to the region at addr.
func (m *Manager) WriteU16(r *Region, addr uint64, value uint16) error {
	return m.writeWidth(r, addr, 2, uint64(value))
}

// WriteU32 writes an aligned 4-byte little-endian value to the region at addr.
func (m *Manager) WriteU32(r *Region, addr uint64, value uint32) error {
	return m.writeWidth(r, addr, 4, uint64(value))
}

// WriteU64 writes an aligned 8-byte little-endian value to the region at addr.
func (m *Manager) WriteU64(r *Region, addr uint64, value uint64) error {
	return m.writeWidth(r, addr, 8, value)
}

// ReadBuffer copies len(out) bytes from the region starting at addr into
// out. No alignment requirement applies. A single aggregate notification
// with value == 0 is emitted on success.
func (m *Manager) ReadBuffer(r *Region, addr uint64, out []byte) error {
	m.mu.Lock()
	if err := checkAccess(r, addr, len(out), Read); err != nil {
		m.mu.Unlock()
		return err
	}
	off := r.offset(addr)
	copy(out, r.data[off:off+uint64(len(out))])
	notifier := m.notifier
	m.mu.Unlock()

	notifier.Notify(r, addr, len(out), 0, AccessRead)
	return nil
}

// WriteBuffer copies data into the region starting at addr. No alignment
// requirement applies. A single aggregate notification with value == 0
// is emitted on success, after the mutation.
func (m *Manager) WriteBuffer(r *Region, addr uint64, data []byte) error {
	m.mu.Lock()
	if err := checkAccess(r, addr, len(data), Write); err != nil {
		m.mu.Unlock()
		return err
	}
	off := r.offset(addr)
	copy(r.data[off:off+uint64(len(data))], data)
	notifier := m.notifier
	m.mu.Unlock()

	notifier.Notify(r, addr, len(data), 0, AccessWrite)
	return nil
}
