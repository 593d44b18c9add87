package vm

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/jbweber/qemubox/internal/errdefs"
)

func TestList(t *testing.T) {
	reg := newTestRegistry(t)
	for _, name := range []string{"web", "db"} {
		if _, err := createWithDeps(context.Background(), reg, name, 64, newMockDiskManager()); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := List(reg)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "db" || entries[1].Name != "web" {
		t.Errorf("List() = %+v", entries)
	}
}

func TestList_WarnsAboutTombstones(t *testing.T) {
	reg := newTestRegistry(t)
	if _, err := createWithDeps(context.Background(), reg, "vm1", 64, newMockDiskManager()); err != nil {
		t.Fatal(err)
	}
	leftover := filepath.Join(reg.Root(), ".old.removing-1234")
	if err := os.Mkdir(leftover, 0755); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	entries, err := List(reg)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("tombstone listed as machine: %+v", entries)
	}
	if !strings.Contains(buf.String(), leftover) {
		t.Errorf("expected warning naming %s, got %q", leftover, buf.String())
	}
}

func TestList_MissingRoot(t *testing.T) {
	reg := newTestRegistry(t)
	if err := os.Remove(reg.Root()); err != nil {
		t.Fatal(err)
	}

	if _, err := List(reg); !errdefs.IsEnvironment(err) {
		t.Errorf("List() error = %v, want KindEnvironment", err)
	}
}
