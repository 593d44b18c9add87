// Package registry discovers machines stored as subdirectories of a root
// directory.
//
// A Registry holds only the root path. Every call rescans the filesystem,
// so edits made by other processes (or by the user's editor) are always
// seen, and there is no cache to go stale.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/jbweber/qemubox/internal/config"
	"github.com/jbweber/qemubox/internal/errdefs"
	"github.com/jbweber/qemubox/internal/naming"
)

const (
	// DirPermissions are the permissions for machine directories.
	DirPermissions = 0755

	// RootEnv overrides the default registry root.
	RootEnv = "QEMUBOX_MACHINES_DIR"

	// relativeRoot is the registry root below the user's home directory.
	relativeRoot = ".local/share/qemubox/machines"
)

// Entry is one machine found in the registry.
type Entry struct {
	// Name equals the base name of Dir.
	Name string

	// Dir is the absolute path of the machine directory.
	Dir string

	Config config.MachineConfig
}

// ConfigPath returns the path of the entry's machine.toml.
func (e *Entry) ConfigPath() string {
	return naming.ConfigPath(e.Dir)
}

// DiskPath returns the resolved path of the entry's disk image.
func (e *Entry) DiskPath() string {
	return e.Config.ResolveDiskPath(e.Dir)
}

// Registry is a directory of machines.
type Registry struct {
	root string
}

// New returns a Registry rooted at root. The path is made absolute so that
// entry directories are absolute.
func New(root string) (*Registry, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errdefs.Environment("resolve registry root", root, err)
	}
	return &Registry{root: abs}, nil
}

// DefaultRoot returns $QEMUBOX_MACHINES_DIR if set, otherwise
// ~/.local/share/qemubox/machines.
func DefaultRoot() (string, error) {
	if root := os.Getenv(RootEnv); root != "" {
		return root, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errdefs.Environment("resolve home directory", "", err)
	}
	return filepath.Join(home, relativeRoot), nil
}

// Root returns the registry root directory.
func (r *Registry) Root() string {
	return r.root
}

// MachineDir returns the directory a machine called name occupies or
// would occupy.
func (r *Registry) MachineDir(name string) string {
	return filepath.Join(r.root, name)
}

// List returns every machine in the registry, sorted by name.
//
// Subdirectories without a machine.toml are skipped, as are hidden entries
// (including directories that are mid-removal). A machine.toml that fails to
// load aborts the whole listing with its KindConfig error; no partial result
// is returned.
func (r *Registry) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, errdefs.Environment("read registry root", r.root, err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if naming.IsHidden(name) {
			continue
		}

		dir := filepath.Join(r.root, name)

		// Follow symlinks so a linked machine directory still counts.
		info, err := os.Stat(dir)
		if err != nil {
			log.Debugf("Skipping %s: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			continue
		}

		cfgPath := naming.ConfigPath(dir)
		cfg, err := config.LoadFromFile(cfgPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				log.Debugf("Skipping %s: no %s", dir, naming.ConfigFileName)
				continue
			}
			return nil, err
		}

		entries = append(entries, Entry{
			Name:   name,
			Dir:    dir,
			Config: *cfg,
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Find returns the machine called name.
func (r *Registry) Find(name string) (*Entry, error) {
	entries, err := r.List()
	if err != nil {
		return nil, err
	}

	for i := range entries {
		if entries[i].Name == name {
			return &entries[i], nil
		}
	}

	return nil, errdefs.NotFound(name)
}

// Locate returns the directory of the machine called name without loading
// its config, so a machine with a broken machine.toml can still be edited
// or removed. It fails with KindEnvironment if the registry root cannot be
// read, and with KindNotFound unless the directory holds a machine.toml.
func (r *Registry) Locate(name string) (string, error) {
	if _, err := os.ReadDir(r.root); err != nil {
		return "", errdefs.Environment("read registry root", r.root, err)
	}

	if naming.ValidateMachineName(name) != nil {
		return "", errdefs.NotFound(name)
	}

	dir := r.MachineDir(name)
	info, err := os.Stat(naming.ConfigPath(dir))
	if err != nil {
		if os.IsNotExist(err) || errors.Is(err, syscall.ENOTDIR) {
			return "", errdefs.NotFound(name)
		}
		return "", errdefs.IO("locate machine", dir, err)
	}
	if info.IsDir() {
		return "", errdefs.NotFound(name)
	}
	return dir, nil
}

// Claim creates the directory for a new machine called name.
//
// The directory is created with a single mkdir, which fails if anything
// already exists at that path. Two processes claiming the same name cannot
// both succeed; the loser gets a KindConflict error.
//
// The registry root is created if it does not exist yet.
func (r *Registry) Claim(name string) (string, error) {
	if err := naming.ValidateMachineName(name); err != nil {
		return "", errdefs.Invalid("create machine", name, err)
	}

	if err := os.MkdirAll(r.root, DirPermissions); err != nil {
		return "", errdefs.IO("create registry root", r.root, err)
	}

	dir := r.MachineDir(name)
	if err := os.Mkdir(dir, DirPermissions); err != nil {
		if os.IsExist(err) {
			return "", errdefs.Conflict(name, dir, nil)
		}
		return "", errdefs.IO("create machine directory", dir, err)
	}

	return dir, nil
}

// Delete removes the directory of the machine called name and everything
// in it.
//
// The directory is first renamed to a hidden tombstone in the same root,
// which is atomic, so List sees the machine either fully present or not at
// all. The tombstone is then deleted. If that deletion fails the machine is
// already gone from the registry; the returned KindIO error names the
// leftover tombstone so it can be cleaned up by hand.
//
// A machine that is a symlink to a directory elsewhere is unregistered by
// removing the link only; the directory it points to is left in place.
func (r *Registry) Delete(name string) error {
	if naming.ValidateMachineName(name) != nil {
		return errdefs.NotFound(name)
	}

	dir := r.MachineDir(name)
	tombstone := filepath.Join(r.root, naming.TombstoneName(name, uuid.NewString()))

	log.Debugf("Renaming %s -> %s", dir, tombstone)
	if err := os.Rename(dir, tombstone); err != nil {
		if os.IsNotExist(err) {
			return errdefs.NotFound(name)
		}
		return errdefs.IO("remove machine directory", dir, err)
	}

	if err := os.RemoveAll(tombstone); err != nil {
		return errdefs.IO("remove machine directory", tombstone,
			fmt.Errorf("machine was unregistered but its files remain: %w", err))
	}

	return nil
}

// Release removes a directory created by Claim after a failed create.
// It is best-effort: failures are logged, not returned.
func (r *Registry) Release(name string) {
	dir := r.MachineDir(name)
	log.Debugf("Removing partially created machine directory %s", dir)
	if err := os.RemoveAll(dir); err != nil {
		log.Warnf("Failed to remove %s: %v", dir, err)
	}
}

// Tombstones returns leftover directories from interrupted removals.
func (r *Registry) Tombstones() ([]string, error) {
	dirEntries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, errdefs.Environment("read registry root", r.root, err)
	}

	var paths []string
	for _, de := range dirEntries {
		if naming.IsTombstone(de.Name()) {
			paths = append(paths, filepath.Join(r.root, de.Name()))
		}
	}
	return paths, nil
}
