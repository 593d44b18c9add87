package vm

import (
	log "github.com/sirupsen/logrus"

	"github.com/jbweber/qemubox/internal/registry"
)

// List returns every machine in the registry, sorted by name.
//
// Leftover directories from interrupted removals are reported as warnings;
// they never appear as machines.
func List(reg *registry.Registry) ([]registry.Entry, error) {
	entries, err := reg.List()
	if err != nil {
		return nil, err
	}

	tombstones, err := reg.Tombstones()
	if err != nil {
		log.Warnf("Failed to check for interrupted removals: %v", err)
	}
	for _, t := range tombstones {
		log.Warnf("Found leftover directory from an interrupted removal: %s", t)
	}

	return entries, nil
}
