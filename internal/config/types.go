package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jbweber/qemubox/internal/naming"
)

// VideoMode selects the emulated display adapter.
type VideoMode string

const (
	// VideoStandard is the standard VGA adapter. Serialized as "std".
	VideoStandard VideoMode = "std"
	// VideoVirtio is the virtio GPU.
	VideoVirtio VideoMode = "virtio"
	// VideoQXL is the QXL paravirtual adapter.
	VideoQXL VideoMode = "qxl"
	// VideoNone disables the display adapter and graphical output.
	VideoNone VideoMode = "none"
)

// videoAliases maps accepted spellings to their canonical mode.
var videoAliases = map[string]VideoMode{
	"std":      VideoStandard,
	"standard": VideoStandard,
	"virtio":   VideoVirtio,
	"qxl":      VideoQXL,
	"none":     VideoNone,
}

// ParseVideoMode parses a video mode name. Matching is case-insensitive and
// "standard" is accepted as an alias for "std".
func ParseVideoMode(s string) (VideoMode, error) {
	if mode, ok := videoAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return mode, nil
	}
	return "", fmt.Errorf("unknown video mode %q (valid: std, virtio, qxl, none)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (v VideoMode) MarshalText() ([]byte, error) {
	if _, err := ParseVideoMode(string(v)); err != nil {
		return nil, err
	}
	return []byte(v), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *VideoMode) UnmarshalText(text []byte) error {
	mode, err := ParseVideoMode(string(text))
	if err != nil {
		return err
	}
	*v = mode
	return nil
}

// MachineConfig describes one machine's virtualization parameters.
// It is stored as the [machine] table of machine.toml.
type MachineConfig struct {
	// Disk is relative to the machine directory unless absolute.
	Disk string `toml:"disk" yaml:"disk" json:"disk"`

	CPUs int `toml:"cpus" yaml:"cpus" json:"cpus"`

	// MemoryMB is the guest memory in megabytes.
	MemoryMB int `toml:"memory" yaml:"memory" json:"memory"`

	KVM   bool      `toml:"kvm" yaml:"kvm" json:"kvm"`
	UEFI  bool      `toml:"uefi" yaml:"uefi" json:"uefi"`
	Video VideoMode `toml:"video" yaml:"video" json:"video"`
}

// fileFormat is the on-disk layout of machine.toml.
type fileFormat struct {
	Machine MachineConfig `toml:"machine"`
}

// Default returns the configuration written for a new machine.
// Fields missing from a config file take these values.
func Default() MachineConfig {
	return MachineConfig{
		Disk:     "./" + naming.DiskFileName,
		CPUs:     2,
		MemoryMB: 2048,
		KVM:      true,
		UEFI:     false,
		Video:    VideoStandard,
	}
}

// FieldError reports a validation failure for a single config key.
type FieldError struct {
	Field string
	Msg   string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Msg)
}

// Validate checks the configuration for errors.
// cpus and memory are only required to be positive; their upper bounds are
// left to the hypervisor.
func (c *MachineConfig) Validate() error {
	if strings.TrimSpace(c.Disk) == "" {
		return &FieldError{Field: "machine.disk", Msg: "must not be empty"}
	}
	if c.CPUs <= 0 {
		return &FieldError{Field: "machine.cpus", Msg: fmt.Sprintf("must be > 0, got %d", c.CPUs)}
	}
	if c.MemoryMB <= 0 {
		return &FieldError{Field: "machine.memory", Msg: fmt.Sprintf("must be > 0, got %d", c.MemoryMB)}
	}
	if _, err := ParseVideoMode(string(c.Video)); err != nil {
		return &FieldError{Field: "machine.video", Msg: err.Error()}
	}
	return nil
}

// ResolveDiskPath returns the disk image path for a machine stored in
// machineDir. Absolute paths are returned unchanged.
func (c *MachineConfig) ResolveDiskPath(machineDir string) string {
	if filepath.IsAbs(c.Disk) {
		return c.Disk
	}
	return filepath.Join(machineDir, c.Disk)
}
