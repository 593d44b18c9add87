// Package naming provides the naming conventions for machines and the
// files that live inside a machine directory.
//
// These rules are shared by the registry, the lifecycle operations and
// the command synthesizer so the layout is defined in one place.
package naming

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// ConfigFileName is the per-machine config file.
	ConfigFileName = "machine.toml"

	// DiskFileName is the disk image created by `new`.
	// The default config points at it as "./disk.qcow2".
	DiskFileName = "disk.qcow2"

	// OVMFVarsFileName holds the per-machine UEFI variable store.
	OVMFVarsFileName = "ovmf_vars.fd"

	// tombstoneInfix marks a directory that is being removed.
	tombstoneInfix = ".removing-"
)

// namePattern matches a single, non-hidden path element.
// Must start with an alphanumeric; may contain alphanumerics, dots,
// hyphens and underscores.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateMachineName checks that name can be used as a machine directory.
func ValidateMachineName(name string) error {
	if name == "" {
		return fmt.Errorf("machine name is required")
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("machine name must start with a letter or digit and contain only letters, digits, '.', '-' or '_', got %q", name)
	}
	return nil
}

// IsHidden reports whether a registry directory entry should be skipped
// when listing machines.
func IsHidden(entryName string) bool {
	return strings.HasPrefix(entryName, ".")
}

// ConfigPath returns the config file path inside machineDir.
func ConfigPath(machineDir string) string {
	return filepath.Join(machineDir, ConfigFileName)
}

// OVMFVarsPath returns the UEFI variable store path inside machineDir.
func OVMFVarsPath(machineDir string) string {
	return filepath.Join(machineDir, OVMFVarsFileName)
}

// TombstoneName returns the hidden name a machine directory is renamed to
// before it is deleted.
// Format: .{name}.removing-{token} (e.g. ".vm1.removing-3f2a...")
func TombstoneName(name, token string) string {
	return "." + name + tombstoneInfix + token
}

// IsTombstone reports whether entryName was produced by TombstoneName.
func IsTombstone(entryName string) bool {
	return IsHidden(entryName) && strings.Contains(entryName, tombstoneInfix)
}
