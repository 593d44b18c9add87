package vm

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"

	"github.com/jbweber/qemubox/internal/disk"
	"github.com/jbweber/qemubox/internal/media"
	"github.com/jbweber/qemubox/internal/naming"
	"github.com/jbweber/qemubox/internal/qemu"
	"github.com/jbweber/qemubox/internal/registry"
)

// RunOptions configures Run.
type RunOptions struct {
	// CDROM is an optional image attached as the machine's CD-ROM.
	CDROM string

	// CommandLine, if set, receives the full hypervisor command line
	// before the process starts.
	CommandLine io.Writer

	// Stdio for the hypervisor; nil means the caller's own.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// firmware holds the host paths used by UEFI machines.
type firmware struct {
	opts         qemu.Options
	varsTemplate string
	seedVars     func(template, dest string) (bool, error)
}

func hostFirmware() firmware {
	return firmware{
		opts:         qemu.DefaultOptions(),
		varsTemplate: qemu.OVMFVarsTemplatePath(),
		seedVars:     disk.SeedOVMFVars,
	}
}

// Run starts the machine called name and waits for the hypervisor to exit.
//
// This orchestrates the run process:
//  1. Look up the machine (KindNotFound if absent)
//  2. Check the CD-ROM image, if one was given
//  3. Seed the UEFI variable store, if UEFI is enabled and it is missing
//  4. Build the hypervisor arguments
//  5. Start the hypervisor and wait
//
// The returned Result carries the hypervisor's exit status. A non-zero exit
// is not an error; only a failure to start (KindProcess) is.
func Run(ctx context.Context, reg *registry.Registry, name string, opts RunOptions) (qemu.Result, error) {
	return runWithDeps(ctx, reg, name, opts, execRunner{}, qemu.Binary(), hostFirmware())
}

// runWithDeps runs a machine with injected dependencies.
func runWithDeps(ctx context.Context, reg *registry.Registry, name string, opts RunOptions, pr processRunner, binary string, fw firmware) (qemu.Result, error) {
	// Step 1: Look up the machine
	log.Debugf("Looking up machine %q...", name)
	entry, err := reg.Find(name)
	if err != nil {
		return qemu.Result{}, err
	}

	// Step 2: Check the CD-ROM
	if opts.CDROM != "" {
		img, err := media.Inspect(opts.CDROM)
		if err != nil {
			return qemu.Result{}, err
		}
		size := humanize.IBytes(uint64(img.Size))
		if img.Label != "" {
			log.Debugf("CD-ROM %s (%s): ISO9660 volume %q, %d root entries", img.Path, size, img.Label, len(img.Entries))
		} else {
			log.Debugf("CD-ROM %s (%s): not an ISO9660 image, passing it through", img.Path, size)
		}
	}

	// Step 3: Seed UEFI variables
	if entry.Config.UEFI {
		dest := naming.OVMFVarsPath(entry.Dir)
		copied, err := fw.seedVars(fw.varsTemplate, dest)
		if err != nil {
			return qemu.Result{}, err
		}
		if copied {
			log.Debugf("Created UEFI variable store %s from %s", dest, fw.varsTemplate)
		}
	}

	// Step 4: Build arguments
	args := qemu.BuildArgs(&entry.Config, entry.Dir, opts.CDROM, fw.opts)

	if opts.CommandLine != nil {
		if _, err := fmt.Fprintln(opts.CommandLine, formatCommandLine(binary, args)); err != nil {
			log.Warnf("Failed to print command line: %v", err)
		}
	}

	// Step 5: Start and wait
	log.Debugf("Starting machine %q...", name)
	result, err := pr.Run(ctx, qemu.Process{
		Binary: binary,
		Args:   args,
		Stdin:  opts.Stdin,
		Stdout: opts.Stdout,
		Stderr: opts.Stderr,
	})
	if err != nil {
		return qemu.Result{}, err
	}

	if result.Signal != "" {
		log.Debugf("Machine %q killed by %s", name, result.Signal)
	} else {
		log.Debugf("Machine %q exited with status %d", name, result.ExitCode)
	}
	return result, nil
}

// formatCommandLine joins a command for display, quoting arguments that
// contain spaces or shell metacharacters.
func formatCommandLine(binary string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	for _, a := range append([]string{binary}, args...) {
		if a == "" || strings.ContainsAny(a, " \t\n'\"\\$`;&|<>*?()") {
			a = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}
