package vm

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/jbweber/qemubox/internal/config"
	"github.com/jbweber/qemubox/internal/disk"
	"github.com/jbweber/qemubox/internal/errdefs"
	"github.com/jbweber/qemubox/internal/naming"
	"github.com/jbweber/qemubox/internal/registry"
)

// Create creates a machine called name with a sizeMB megabyte disk.
//
// This orchestrates the creation process:
//  1. Claim the machine directory (exclusive mkdir)
//  2. Create the disk image and wait until it is verified
//  3. Write the default machine.toml
//
// The config is written last: the registry ignores directories without a
// machine.toml, so the machine only becomes visible once it is complete.
// On any failure after step 1 the directory is removed again.
//
// If name is already taken (by a machine, a stray directory, or a file) a
// KindConflict error is returned and nothing is touched.
func Create(ctx context.Context, reg *registry.Registry, name string, sizeMB int) (*registry.Entry, error) {
	return createWithDeps(ctx, reg, name, sizeMB, disk.NewManager())
}

// createWithDeps creates a machine with an injected disk manager.
func createWithDeps(ctx context.Context, reg *registry.Registry, name string, sizeMB int, dm diskManager) (*registry.Entry, error) {
	if sizeMB <= 0 {
		return nil, errdefs.Invalid("create machine", name, fmt.Errorf("disk size must be > 0 MB, got %d", sizeMB))
	}

	// Step 1: Claim the name
	log.Debugf("Creating machine directory for %q...", name)
	dir, err := reg.Claim(name)
	if err != nil {
		return nil, err
	}

	// Anything after the claim cleans up on failure
	var createErr error
	defer func() {
		if createErr != nil {
			cleanupWithDeps(reg, name)
		}
	}()

	cfg := config.Default()

	// Step 2: Provision the disk
	diskPath := cfg.ResolveDiskPath(dir)
	log.Debugf("Creating disk image %s (%d MB)...", diskPath, sizeMB)
	if createErr = dm.CreateImage(ctx, diskPath, sizeMB); createErr != nil {
		return nil, createErr
	}

	// Step 3: Write the config
	cfgPath := naming.ConfigPath(dir)
	log.Debugf("Writing %s...", cfgPath)
	if createErr = config.SaveToFile(&cfg, cfgPath); createErr != nil {
		return nil, createErr
	}

	log.Debugf("Machine %q created in %s", name, dir)
	return &registry.Entry{Name: name, Dir: dir, Config: cfg}, nil
}

// cleanupWithDeps removes a partially created machine.
//
// This is best-effort: it logs errors but never returns one.
func cleanupWithDeps(reg *registry.Registry, name string) {
	log.Debugf("Cleaning up after failed creation of %q...", name)
	reg.Release(name)
}
