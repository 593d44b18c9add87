// Package vm provides high-level machine lifecycle operations.
//
// This package composes the lower-level components (registry, config, disk,
// qemu) into the operations the CLI exposes:
//   - Create: claim a name, provision the disk, write the default config
//   - Remove: delete a machine, gated by explicit confirmation
//   - Run: start the hypervisor and wait for it to exit
//   - Edit: open machine.toml in the user's editor and re-validate it
//   - List: list machines, warning about interrupted removals
//
// Error Handling:
//
// Every operation returns an *errdefs.Error whose Kind tells the caller what
// went wrong. Create cleans up a partially created machine directory on
// failure; cleanup errors are logged but do not replace the original error.
//
// Context Support:
//
// Create, Run and Edit accept a context.Context. Cancelling it kills the
// external process (qemu-img, the hypervisor, or the editor).
package vm
