package filestore

import (
	"sort"
	"sync"

	"github.com/code19m/errx"
)

// Registry maps stable disk names to Disk implementations.
// File records reference their storage location by these names.
type Registry struct {
	mu    sync.RWMutex
	disks map[string]Disk
}

// NewRegistry creates an empty disk registry.
func NewRegistry() *Registry {
	return &Registry{
		disks: make(map[string]Disk),
	}
}

// Register adds a disk under the given name, replacing any previous
// registration with the same name.
func (r *Registry) Register(name string, disk Disk) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disks[name] = disk
}

// Get returns the disk registered under name.
// Unknown names fail with CodeUnknownDisk since they indicate a record
// referencing a storage location this deployment does not carry.
func (r *Registry) Get(name string) (Disk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	disk, ok := r.disks[name]
	if !ok {
		return nil, errx.New(
			"unknown storage disk: "+name,
			errx.WithCode(CodeUnknownDisk),
			errx.WithType(errx.T_Validation),
		)
	}
	return disk, nil
}

// Names returns the sorted list of registered disk names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.disks))
	for name := range r.disks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
