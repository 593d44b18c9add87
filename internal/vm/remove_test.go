package vm

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jbweber/qemubox/internal/errdefs"
)

func TestRemove_Unconfirmed(t *testing.T) {
	reg := newTestRegistry(t)
	if _, err := createWithDeps(context.Background(), reg, "vm1", 64, newMockDiskManager()); err != nil {
		t.Fatal(err)
	}
	dir := reg.MachineDir("vm1")
	before, _ := os.ReadDir(dir)

	result, err := Remove(reg, "vm1", false)
	if err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if result.Removed {
		t.Error("Removed = true without confirmation")
	}
	if result.Path != dir || result.Name != "vm1" {
		t.Errorf("result = %+v, want path %s", result, dir)
	}

	after, _ := os.ReadDir(dir)
	if len(before) != len(after) {
		t.Errorf("directory changed: %d entries before, %d after", len(before), len(after))
	}
	if _, err := reg.Find("vm1"); err != nil {
		t.Errorf("machine no longer listed: %v", err)
	}
}

func TestRemove_Confirmed(t *testing.T) {
	reg := newTestRegistry(t)
	for _, name := range []string{"vm1", "vm2"} {
		if _, err := createWithDeps(context.Background(), reg, name, 64, newMockDiskManager()); err != nil {
			t.Fatal(err)
		}
	}

	result, err := Remove(reg, "vm1", true)
	if err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if !result.Removed {
		t.Error("Removed = false with confirmation")
	}

	if _, err := os.Lstat(reg.MachineDir("vm1")); !os.IsNotExist(err) {
		t.Errorf("directory still exists: %v", err)
	}

	entries, err := reg.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "vm2" {
		t.Errorf("List() after remove = %+v, want only vm2", entries)
	}
}

func TestRemove_BrokenConfig(t *testing.T) {
	reg := newTestRegistry(t)
	dir := reg.MachineDir("broken")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "machine.toml"), []byte("[machine]\ncpus = \"lots\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := reg.List(); !errdefs.IsConfig(err) {
		t.Fatalf("List() error = %v, want KindConfig", err)
	}

	if _, err := Remove(reg, "broken", true); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if _, err := reg.List(); err != nil {
		t.Errorf("List() after removing broken machine: %v", err)
	}
}

func TestRemove_NotFound(t *testing.T) {
	reg := newTestRegistry(t)
	if err := os.MkdirAll(reg.Root(), 0755); err != nil {
		t.Fatal(err)
	}

	for _, confirmed := range []bool{false, true} {
		if _, err := Remove(reg, "nonexistent", confirmed); !errdefs.IsNotFound(err) {
			t.Errorf("Remove(confirmed=%v) error = %v, want KindNotFound", confirmed, err)
		}
	}
}

func TestRemove_MissingRoot(t *testing.T) {
	reg := newTestRegistry(t)
	if err := os.Remove(reg.Root()); err != nil {
		t.Fatal(err)
	}

	for _, confirmed := range []bool{false, true} {
		if _, err := Remove(reg, "vm1", confirmed); !errdefs.IsEnvironment(err) {
			t.Errorf("Remove(confirmed=%v) error = %v, want KindEnvironment", confirmed, err)
		}
	}
}
