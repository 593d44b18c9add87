package disk

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jbweber/qemubox/internal/errdefs"
)

// qcow2Header returns a minimal qcow2 header for an image of size bytes.
func qcow2Header(size uint64) []byte {
	data := make([]byte, 512)
	copy(data, qcow2Magic)
	binary.BigEndian.PutUint32(data[4:8], 3)
	binary.BigEndian.PutUint64(data[24:32], size)
	return data
}

// fakeQemuImg returns a runner that writes a qcow2 header of the requested
// size to the target path, and records its arguments.
func fakeQemuImg(calls *[][]string, sizeOverride uint64) commandRunner {
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, append([]string{name}, args...))
		path := args[len(args)-2]
		var mb uint64
		for _, c := range strings.TrimSuffix(args[len(args)-1], "M") {
			mb = mb*10 + uint64(c-'0')
		}
		size := mb * bytesPerMB
		if sizeOverride != 0 {
			size = sizeOverride
		}
		return nil, os.WriteFile(path, qcow2Header(size), 0644)
	}
}

func TestCreateImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "disk.qcow2")

	var calls [][]string
	m := &Manager{qemuImg: "qemu-img", run: fakeQemuImg(&calls, 0)}

	if err := m.CreateImage(context.Background(), path, 2048); err != nil {
		t.Fatalf("CreateImage() error: %v", err)
	}

	if len(calls) != 1 {
		t.Fatalf("expected 1 qemu-img call, got %d", len(calls))
	}
	want := []string{"qemu-img", "create", "-f", "qcow2", path, "2048M"}
	if strings.Join(calls[0], " ") != strings.Join(want, " ") {
		t.Errorf("qemu-img args = %q, want %q", calls[0], want)
	}

	info, err := Inspect(path)
	if err != nil {
		t.Fatalf("Inspect() error: %v", err)
	}
	if info.VirtualSize != 2048*bytesPerMB {
		t.Errorf("VirtualSize = %d", info.VirtualSize)
	}
}

func TestCreateImage_ToolFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.qcow2")
	m := &Manager{
		qemuImg: "qemu-img",
		run: func(context.Context, string, ...string) ([]byte, error) {
			return []byte("qemu-img: Invalid image size specified"), errors.New("exit status 1")
		},
	}

	err := m.CreateImage(context.Background(), path, 10)
	if !errdefs.IsProcess(err) {
		t.Fatalf("CreateImage() error = %v, want KindProcess", err)
	}
	if !strings.Contains(err.Error(), "Invalid image size") {
		t.Errorf("error should include tool output, got: %v", err)
	}
}

func TestCreateImage_ToolExitsWithoutWriting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.qcow2")
	m := &Manager{
		qemuImg: "qemu-img",
		run: func(context.Context, string, ...string) ([]byte, error) {
			return nil, nil
		},
	}

	if err := m.CreateImage(context.Background(), path, 10); !errdefs.IsProcess(err) {
		t.Fatalf("CreateImage() error = %v, want KindProcess", err)
	}
}

func TestCreateImage_WrongSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.qcow2")
	var calls [][]string
	m := &Manager{qemuImg: "qemu-img", run: fakeQemuImg(&calls, 1)}

	err := m.CreateImage(context.Background(), path, 10)
	if !errdefs.IsProcess(err) {
		t.Fatalf("CreateImage() error = %v, want KindProcess", err)
	}
}

func TestCreateImage_ExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.qcow2")
	if err := os.WriteFile(path, []byte("keep me"), 0644); err != nil {
		t.Fatal(err)
	}

	var calls [][]string
	m := &Manager{qemuImg: "qemu-img", run: fakeQemuImg(&calls, 0)}

	if err := m.CreateImage(context.Background(), path, 10); !errdefs.IsIO(err) {
		t.Fatalf("CreateImage() error = %v, want KindIO", err)
	}
	if len(calls) != 0 {
		t.Error("qemu-img must not run when the target exists")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "keep me" {
		t.Error("existing file was modified")
	}
}

func TestCreateImage_InvalidSize(t *testing.T) {
	m := &Manager{qemuImg: "qemu-img", run: execRunner}
	for _, size := range []int{0, -5} {
		if err := m.CreateImage(context.Background(), filepath.Join(t.TempDir(), "d.qcow2"), size); !errdefs.IsInvalid(err) {
			t.Errorf("CreateImage(size=%d) error = %v, want KindInvalid", size, err)
		}
	}
}

func TestCreateImage_QemuImg(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if _, err := exec.LookPath("qemu-img"); err != nil {
		t.Skip("qemu-img not found, skipping test")
	}

	path := filepath.Join(t.TempDir(), "disk.qcow2")
	m := NewManagerWithTool("qemu-img")

	if err := m.CreateImage(context.Background(), path, 64); err != nil {
		t.Fatalf("CreateImage() error: %v", err)
	}

	info, err := Inspect(path)
	if err != nil {
		t.Fatalf("Inspect() error: %v", err)
	}
	if info.Format != FormatQCOW2 {
		t.Errorf("Format = %s, want qcow2", info.Format)
	}
	if info.VirtualSize != 64*bytesPerMB {
		t.Errorf("VirtualSize = %d, want %d", info.VirtualSize, 64*bytesPerMB)
	}
}

func TestNewManager_Env(t *testing.T) {
	t.Setenv("QEMUBOX_QEMU_IMG", "/opt/bin/qemu-img")
	if m := NewManager(); m.qemuImg != "/opt/bin/qemu-img" {
		t.Errorf("qemuImg = %q", m.qemuImg)
	}

	t.Setenv("QEMUBOX_QEMU_IMG", "")
	if m := NewManager(); m.qemuImg != DefaultQemuImg {
		t.Errorf("qemuImg = %q, want %q", m.qemuImg, DefaultQemuImg)
	}
}

func TestSeedOVMFVars(t *testing.T) {
	dir := t.TempDir()
	template := filepath.Join(dir, "OVMF_VARS.fd")
	dest := filepath.Join(dir, "vm1", "ovmf_vars.fd")

	if err := os.WriteFile(template, []byte("vars-template"), 0444); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Dir(dest), 0755); err != nil {
		t.Fatal(err)
	}

	copied, err := SeedOVMFVars(template, dest)
	if err != nil {
		t.Fatalf("SeedOVMFVars() error: %v", err)
	}
	if !copied {
		t.Error("expected a copy on first call")
	}

	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "vars-template" {
		t.Fatalf("dest = %q, %v", data, err)
	}
	info, _ := os.Stat(dest)
	if info.Mode().Perm() != FilePermissions {
		t.Errorf("permissions = %o, want %o (must be writable)", info.Mode().Perm(), FilePermissions)
	}

	// Existing store is left alone
	if err := os.WriteFile(dest, []byte("guest-state"), 0644); err != nil {
		t.Fatal(err)
	}
	copied, err = SeedOVMFVars(template, dest)
	if err != nil || copied {
		t.Fatalf("second SeedOVMFVars() = %v, %v; want false, nil", copied, err)
	}
	data, _ = os.ReadFile(dest)
	if string(data) != "guest-state" {
		t.Error("existing variable store was overwritten")
	}
}

func TestSeedOVMFVars_MissingTemplate(t *testing.T) {
	dir := t.TempDir()
	_, err := SeedOVMFVars(filepath.Join(dir, "missing.fd"), filepath.Join(dir, "vars.fd"))
	if !errdefs.IsIO(err) {
		t.Fatalf("SeedOVMFVars() error = %v, want KindIO", err)
	}
}
