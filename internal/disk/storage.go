// Package disk provisions machine disk images with qemu-img and prepares
// the per-machine UEFI variable store.
package disk

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/jbweber/qemubox/internal/errdefs"
)

const (
	// DefaultQemuImg is the disk image tool.
	DefaultQemuImg = "qemu-img"

	// FilePermissions are the permissions for files copied into a machine
	// directory.
	FilePermissions = 0644

	bytesPerMB = 1024 * 1024
)

// commandRunner runs an external command to completion and returns its
// combined output. Tests replace it to avoid needing qemu-img.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Manager creates disk images.
type Manager struct {
	qemuImg string
	run     commandRunner
}

// NewManager creates a disk manager using qemu-img from $QEMUBOX_QEMU_IMG,
// or from $PATH if unset.
func NewManager() *Manager {
	qemuImg := os.Getenv("QEMUBOX_QEMU_IMG")
	if qemuImg == "" {
		qemuImg = DefaultQemuImg
	}
	return NewManagerWithTool(qemuImg)
}

// NewManagerWithTool creates a disk manager using a specific qemu-img binary.
func NewManagerWithTool(qemuImg string) *Manager {
	return &Manager{
		qemuImg: qemuImg,
		run:     execRunner,
	}
}

// CreateImage creates a qcow2 image of sizeMB megabytes at path.
//
// It blocks until qemu-img exits, then reads the new file's header and
// checks that it is a qcow2 image of the requested size. The image is only
// reported as created once both checks pass. An existing file at path is
// never overwritten.
func (m *Manager) CreateImage(ctx context.Context, path string, sizeMB int) error {
	if sizeMB <= 0 {
		return errdefs.Invalid("create disk image", "", fmt.Errorf("disk size must be > 0 MB, got %d", sizeMB))
	}

	if _, err := os.Lstat(path); err == nil {
		return errdefs.IO("create disk image", path, os.ErrExist)
	} else if !os.IsNotExist(err) {
		return errdefs.IO("create disk image", path, err)
	}

	log.Debugf("Running %s create -f qcow2 %s %dM", m.qemuImg, path, sizeMB)
	output, err := m.run(ctx, m.qemuImg,
		"create",
		"-f", "qcow2",
		path,
		fmt.Sprintf("%dM", sizeMB),
	)
	if err != nil {
		return errdefs.Process("create disk image", m.qemuImg,
			fmt.Errorf("%w\nOutput: %s", err, string(output)))
	}

	info, err := Inspect(path)
	if err != nil {
		return errdefs.Process("verify disk image", path, err)
	}
	if info.Format != FormatQCOW2 {
		return errdefs.Process("verify disk image", path, fmt.Errorf("expected qcow2 image, found %s", info.Format))
	}
	if want := uint64(sizeMB) * bytesPerMB; info.VirtualSize != want {
		return errdefs.Process("verify disk image", path,
			fmt.Errorf("image size is %d bytes, want %d", info.VirtualSize, want))
	}

	return nil
}

// SeedOVMFVars copies the UEFI variable template to dest unless dest
// already exists. It reports whether a copy was made.
func SeedOVMFVars(template, dest string) (bool, error) {
	if _, err := os.Stat(dest); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, errdefs.IO("check UEFI variable store", dest, err)
	}

	log.Debugf("Copying UEFI variable template %s -> %s", template, dest)
	if err := copyFile(template, dest, FilePermissions); err != nil {
		return false, err
	}
	return true, nil
}

// copyFile copies src to dst atomically: the data is written to a
// temporary file next to dst and renamed into place.
func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return errdefs.IO("open "+filepath.Base(src), src, err)
	}
	defer func() { _ = in.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return errdefs.IO("create "+filepath.Base(dst), dst, err)
	}

	cleanup := func() {
		if err := os.Remove(tmp.Name()); err != nil {
			log.Warnf("Failed to remove %v: %v.", tmp.Name(), err)
		}
	}

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		cleanup()
		return errdefs.IO("write "+filepath.Base(dst), dst, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errdefs.IO("write "+filepath.Base(dst), dst, err)
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		cleanup()
		return errdefs.IO("write "+filepath.Base(dst), dst, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		cleanup()
		return errdefs.IO("write "+filepath.Base(dst), dst, err)
	}
	return nil
}
