// Package output provides formatters for displaying machines in various
// formats (table, YAML, JSON).
package output

import (
	"errors"
	"fmt"
	"os"

	"github.com/jbweber/qemubox/internal/config"
	"github.com/jbweber/qemubox/internal/disk"
	"github.com/jbweber/qemubox/internal/registry"
)

// Format represents an output format type.
type Format string

const (
	// FormatTable is a human-readable table format.
	FormatTable Format = "table"
	// FormatYAML is a YAML format.
	FormatYAML Format = "yaml"
	// FormatJSON is a JSON format for machine consumption.
	FormatJSON Format = "json"
)

// Machine is the displayed form of a registry entry.
type Machine struct {
	Name   string               `yaml:"name" json:"name"`
	Dir    string               `yaml:"dir" json:"dir"`
	Config config.MachineConfig `yaml:"machine" json:"machine"`
	Disk   DiskStatus           `yaml:"disk_status" json:"disk_status"`
}

// DiskStatus describes the machine's disk image as found on disk.
type DiskStatus struct {
	Path    string `yaml:"path" json:"path"`
	Present bool   `yaml:"present" json:"present"`

	// Format and VirtualSize are empty when the image could not be read.
	Format      string `yaml:"format,omitempty" json:"format,omitempty"`
	VirtualSize uint64 `yaml:"virtual_size,omitempty" json:"virtual_size,omitempty"`
	FileSize    int64  `yaml:"file_size,omitempty" json:"file_size,omitempty"`
}

// NewMachine builds the displayed form of entry, inspecting its disk image.
func NewMachine(entry *registry.Entry) Machine {
	m := Machine{
		Name:   entry.Name,
		Dir:    entry.Dir,
		Config: entry.Config,
		Disk:   DiskStatus{Path: entry.DiskPath()},
	}

	info, err := disk.Inspect(m.Disk.Path)
	switch {
	case err == nil:
		m.Disk.Present = true
		m.Disk.Format = string(info.Format)
		m.Disk.VirtualSize = info.VirtualSize
		m.Disk.FileSize = info.FileSize
	case errors.Is(err, os.ErrNotExist):
	default:
		// Exists but unreadable or not an image we recognise.
		if st, statErr := os.Stat(m.Disk.Path); statErr == nil {
			m.Disk.Present = true
			m.Disk.FileSize = st.Size()
		}
	}

	return m
}

// NewMachines builds the displayed form of every entry.
func NewMachines(entries []registry.Entry) []Machine {
	machines := make([]Machine, 0, len(entries))
	for i := range entries {
		machines = append(machines, NewMachine(&entries[i]))
	}
	return machines
}

// Formatter formats machines for output.
type Formatter interface {
	// FormatMachine formats a single machine.
	FormatMachine(m *Machine) (string, error)

	// FormatMachineList formats a list of machines.
	FormatMachineList(ms []Machine) (string, error)
}

// Options contains options for formatting output.
type Options struct {
	// Format specifies the output format.
	Format Format
	// NoHeaders omits headers in table format.
	NoHeaders bool
}

// NewFormatter creates a new Formatter based on the specified format.
func NewFormatter(opts Options) (Formatter, error) {
	switch opts.Format {
	case FormatTable:
		return &TableFormatter{NoHeaders: opts.NoHeaders}, nil
	case FormatYAML:
		return &YAMLFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (supported: table, yaml, json)", opts.Format)
	}
}

// ValidateFormat checks if a format string is valid.
func ValidateFormat(format string) error {
	f := Format(format)
	switch f {
	case FormatTable, FormatYAML, FormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid format: %s (valid formats: table, yaml, json)", format)
	}
}
