// Package rig manages the device inventory file: the named set of capture
// devices a recording session drives.
package rig

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/slatecast/slatecast/config"
	"github.com/slatecast/slatecast/internal/device"
)

// Device kinds understood by the rig file.
const (
	KindOBS    = "obs"
	KindRokoko = "rokoko"
	KindREST   = "rest"
)

// Device is one entry in the rig file.
type Device struct {
	Kind    string `toml:"kind"`
	Address string `toml:"address"`
	// Port overrides the kind's configured default when nonzero.
	Port int `toml:"port,omitempty"`
	// Secret is the OBS password or REST API key. Empty falls back to the
	// settings store.
	Secret string `toml:"secret,omitempty"`
	// Disabled devices stay in the rig but are skipped by sessions.
	Disabled bool `toml:"disabled,omitempty"`
	// TriggerStart/TriggerStop default to true when absent.
	TriggerStart *bool `toml:"trigger_start,omitempty"`
	TriggerStop  *bool `toml:"trigger_stop,omitempty"`
}

// File is the on-disk rig structure.
type File struct {
	Devices map[string]Device `toml:"devices"`
}

// Manager loads and saves one rig file.
type Manager struct {
	file File
	path string
}

// NewManager creates a manager for the configured rig path.
func NewManager() *Manager {
	return &Manager{
		file: File{Devices: make(map[string]Device)},
		path: config.GetRigPath(),
	}
}

// NewManagerAt creates a manager for an explicit rig path.
func NewManagerAt(path string) *Manager {
	return &Manager{
		file: File{Devices: make(map[string]Device)},
		path: path,
	}
}

// Load reads the rig file, creating an empty one if it does not exist.
func (m *Manager) Load() error {
	if _, err := os.Stat(m.path); os.IsNotExist(err) {
		return m.Save()
	}

	data, err := os.ReadFile(m.path)
	if err != nil {
		return errors.Wrap(err, "failed to read rig file")
	}
	if len(data) == 0 {
		m.file = File{Devices: make(map[string]Device)}
		return nil
	}

	if err := toml.Unmarshal(data, &m.file); err != nil {
		return errors.Wrap(err, "failed to parse rig file")
	}
	if m.file.Devices == nil {
		m.file.Devices = make(map[string]Device)
	}
	return nil
}

// Save writes the rig file.
func (m *Manager) Save() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create rig directory")
	}

	data, err := toml.Marshal(m.file)
	if err != nil {
		return errors.Wrap(err, "failed to serialize rig data")
	}
	if err := os.WriteFile(m.path, data, 0o600); err != nil {
		return errors.Wrap(err, "failed to write rig file")
	}
	return nil
}

// Set adds or replaces a device entry.
func (m *Manager) Set(name string, dev Device) {
	m.file.Devices[name] = dev
}

// Remove deletes a device entry, reporting whether it existed.
func (m *Manager) Remove(name string) bool {
	if _, ok := m.file.Devices[name]; !ok {
		return false
	}
	delete(m.file.Devices, name)
	return true
}

// Get returns a device entry by name.
func (m *Manager) Get(name string) (Device, bool) {
	dev, ok := m.file.Devices[name]
	return dev, ok
}

// Names returns all device names, sorted.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.file.Devices))
	for name := range m.file.Devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build constructs a connection for a rig entry and applies its trigger
// flags.
func Build(name string, dev Device, events device.Events) (*device.Connection, error) {
	var conn *device.Connection
	switch dev.Kind {
	case KindOBS:
		conn = device.NewOBS(name, dev.Address, dev.Port, dev.Secret, events)
	case KindRokoko:
		conn = device.NewRokoko(name, dev.Address, dev.Port, events)
	case KindREST:
		conn = device.NewRESTCapture(name, dev.Address, dev.Port, dev.Secret, events)
	default:
		return nil, errors.Errorf("unknown device kind %q for %s", dev.Kind, name)
	}

	if dev.TriggerStart != nil {
		conn.SetTriggerStart(*dev.TriggerStart)
	}
	if dev.TriggerStop != nil {
		conn.SetTriggerStop(*dev.TriggerStop)
	}
	return conn, nil
}
