package vm

import (
	log "github.com/sirupsen/logrus"

	"github.com/jbweber/qemubox/internal/registry"
)

// RemoveResult describes the outcome of Remove.
type RemoveResult struct {
	// Name is the machine name.
	Name string

	// Path is the machine directory that was, or would be, removed.
	Path string

	// Removed is false when confirmation was withheld and nothing was
	// deleted. This is not an error.
	Removed bool
}

// Remove deletes the machine called name and its whole directory.
//
// Without confirmation nothing is deleted; the result reports the path that
// would be removed so the caller can ask the user. A machine whose config
// no longer loads can still be removed.
//
// Returns a KindNotFound error if there is no such machine.
func Remove(reg *registry.Registry, name string, confirmed bool) (*RemoveResult, error) {
	log.Debugf("Looking up machine %q...", name)
	dir, err := reg.Locate(name)
	if err != nil {
		return nil, err
	}

	result := &RemoveResult{Name: name, Path: dir}
	if !confirmed {
		log.Debugf("Removal of %s not confirmed, leaving it in place", dir)
		return result, nil
	}

	log.Debugf("Removing %s...", dir)
	if err := reg.Delete(name); err != nil {
		return nil, err
	}

	result.Removed = true
	return result, nil
}
