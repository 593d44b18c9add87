package vm

import (
	"context"
	"encoding/binary"
	"os"
	"sync"

	"github.com/jbweber/qemubox/internal/qemu"
)

// createImageCall records one CreateImage invocation.
type createImageCall struct {
	path   string
	sizeMB int
}

// mockDiskManager is a mock implementation of the diskManager interface for testing.
type mockDiskManager struct {
	mu sync.Mutex

	// Configurable behavior
	createImageFunc func(ctx context.Context, path string, sizeMB int) error

	// Call tracking
	createImageCalls []createImageCall
}

// newMockDiskManager creates a mock that writes a minimal qcow2 header,
// like a successful qemu-img run.
func newMockDiskManager() *mockDiskManager {
	m := &mockDiskManager{}

	m.createImageFunc = func(_ context.Context, path string, sizeMB int) error {
		header := make([]byte, 512)
		copy(header, "QFI\xfb")
		binary.BigEndian.PutUint64(header[24:32], uint64(sizeMB)*1024*1024)
		return os.WriteFile(path, header, 0644)
	}

	return m
}

func (m *mockDiskManager) CreateImage(ctx context.Context, path string, sizeMB int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createImageCalls = append(m.createImageCalls, createImageCall{path: path, sizeMB: sizeMB})
	return m.createImageFunc(ctx, path, sizeMB)
}

// mockProcessRunner is a mock implementation of the processRunner interface for testing.
type mockProcessRunner struct {
	mu sync.Mutex

	// Configurable behavior
	runFunc func(ctx context.Context, p qemu.Process) (qemu.Result, error)

	// Call tracking
	runCalls []qemu.Process
}

// newMockProcessRunner creates a mock whose processes exit 0.
func newMockProcessRunner() *mockProcessRunner {
	m := &mockProcessRunner{}

	m.runFunc = func(context.Context, qemu.Process) (qemu.Result, error) {
		return qemu.Result{ExitCode: 0}, nil
	}

	return m
}

func (m *mockProcessRunner) Run(ctx context.Context, p qemu.Process) (qemu.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runCalls = append(m.runCalls, p)
	return m.runFunc(ctx, p)
}

// seedCall records one UEFI variable store seeding.
type seedCall struct {
	template string
	dest     string
}

// mockFirmware returns firmware paths that record seeding calls instead of
// copying files.
func mockFirmware(calls *[]seedCall, err error) firmware {
	return firmware{
		opts:         qemu.Options{OVMFCode: "/fw/OVMF_CODE.fd"},
		varsTemplate: "/fw/OVMF_VARS.fd",
		seedVars: func(template, dest string) (bool, error) {
			*calls = append(*calls, seedCall{template: template, dest: dest})
			if err != nil {
				return false, err
			}
			return true, nil
		},
	}
}
