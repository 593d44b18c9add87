// Package qemu builds qemu-system-x86_64 command lines from machine
// configuration and runs the resulting hypervisor process.
package qemu

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jbweber/qemubox/internal/config"
	"github.com/jbweber/qemubox/internal/naming"
)

const (
	// DefaultBinary is the hypervisor executable.
	DefaultBinary = "qemu-system-x86_64"

	// DefaultOVMFCode is the shared, read-only UEFI firmware image.
	DefaultOVMFCode = "/usr/share/edk2-ovmf/x64/OVMF_CODE.fd"

	// DefaultOVMFVars is the template copied into a machine directory the
	// first time it boots with UEFI.
	DefaultOVMFVars = "/usr/share/edk2-ovmf/x64/OVMF_VARS.fd"
)

// Binary returns the hypervisor executable, honouring $QEMUBOX_QEMU.
func Binary() string {
	if b := os.Getenv("QEMUBOX_QEMU"); b != "" {
		return b
	}
	return DefaultBinary
}

// OVMFCodePath returns the firmware image, honouring $QEMUBOX_OVMF_CODE.
func OVMFCodePath() string {
	if p := os.Getenv("QEMUBOX_OVMF_CODE"); p != "" {
		return p
	}
	return DefaultOVMFCode
}

// OVMFVarsTemplatePath returns the UEFI vars template, honouring
// $QEMUBOX_OVMF_VARS.
func OVMFVarsTemplatePath() string {
	if p := os.Getenv("QEMUBOX_OVMF_VARS"); p != "" {
		return p
	}
	return DefaultOVMFVars
}

// videoArgs maps each video mode to its flags.
var videoArgs = map[config.VideoMode][]string{
	config.VideoStandard: {"-vga", "std"},
	config.VideoVirtio:   {"-vga", "virtio"},
	config.VideoQXL:      {"-vga", "qxl"},
	config.VideoNone:     {"-vga", "none", "-nographic"},
}

// BuildArgs returns the hypervisor arguments for a machine whose directory
// is machineDir, booting cdrom if it is non-empty.
//
// The function is pure: the same inputs always produce the same slice, and
// nothing is read from or written to disk. The firmware image path is
// resolved once by the caller through OVMFCodePath and passed in
// Options.OVMFCode.
//
// Argument order:
//
//	-smp N -m NM [-enable-kvm] [-drive code -drive vars] -vga MODE [-nographic] [-cdrom ISO] DISK
//
// The disk is always last; qemu treats the trailing positional argument as
// the primary hard disk. A config with no video mode gets the default
// adapter.
func BuildArgs(cfg *config.MachineConfig, machineDir, cdrom string, opts Options) []string {
	args := make([]string, 0, 16)

	args = append(args, "-smp", strconv.Itoa(cfg.CPUs))
	args = append(args, "-m", fmt.Sprintf("%dM", cfg.MemoryMB))

	if cfg.KVM {
		args = append(args, "-enable-kvm")
	}

	if cfg.UEFI {
		code := opts.OVMFCode
		if code == "" {
			code = DefaultOVMFCode
		}
		args = append(args,
			"-drive", "if=pflash,format=raw,readonly=on,file="+code,
			"-drive", "if=pflash,format=raw,file="+naming.OVMFVarsPath(machineDir),
		)
	}

	video, ok := videoArgs[cfg.Video]
	if !ok {
		video = videoArgs[config.Default().Video]
	}
	args = append(args, video...)

	if cdrom != "" {
		args = append(args, "-cdrom", cdrom)
	}

	args = append(args, cfg.ResolveDiskPath(machineDir))

	return args
}

// Options carries host-specific inputs to BuildArgs.
type Options struct {
	// OVMFCode is the read-only firmware image. Empty means DefaultOVMFCode.
	OVMFCode string
}

// DefaultOptions returns Options resolved from the environment.
func DefaultOptions() Options {
	return Options{OVMFCode: OVMFCodePath()}
}
