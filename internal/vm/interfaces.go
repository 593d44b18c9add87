package vm

import (
	"context"

	"github.com/jbweber/qemubox/internal/qemu"
)

// diskManager defines the disk operations needed to create a machine.
//
// In production, this is satisfied by *disk.Manager.
// In tests, this is satisfied by mock implementations.
type diskManager interface {
	// CreateImage creates a qcow2 image and blocks until it is verified
	CreateImage(ctx context.Context, path string, sizeMB int) error
}

// processRunner starts an external process and waits for it to exit.
// It runs both the hypervisor and the editor.
//
// In production, this is satisfied by execRunner (qemu.Run).
// In tests, this is satisfied by mock implementations.
type processRunner interface {
	Run(ctx context.Context, p qemu.Process) (qemu.Result, error)
}

// execRunner runs processes with qemu.Run.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, p qemu.Process) (qemu.Result, error) {
	return qemu.Run(ctx, p)
}
