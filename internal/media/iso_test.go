package media

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/kdomanski/iso9660"

	"github.com/jbweber/qemubox/internal/errdefs"
)

// writeISO builds an ISO9660 image with one file and the given label.
func writeISO(t *testing.T, path, label string) {
	t.Helper()

	writer, err := iso9660.NewWriter()
	if err != nil {
		t.Fatalf("failed to create ISO writer: %v", err)
	}
	defer func() { _ = writer.Cleanup() }()

	if err := writer.AddFile(bytes.NewReader([]byte("hello")), "readme"); err != nil {
		t.Fatalf("failed to add file: %v", err)
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	if err := writer.WriteTo(f, label); err != nil {
		t.Fatalf("failed to write ISO: %v", err)
	}
}

func TestInspect_ISO(t *testing.T) {
	path := filepath.Join(t.TempDir(), "install.iso")
	writeISO(t, path, "FEDORA_41")

	img, err := Inspect(path)
	if err != nil {
		t.Fatalf("Inspect() error: %v", err)
	}

	if img.Label != "FEDORA_41" {
		t.Errorf("Label = %q, want FEDORA_41", img.Label)
	}
	if img.Size == 0 {
		t.Error("Size should be non-zero")
	}
	if len(img.Entries) != 1 || img.Entries[0] != "readme" {
		t.Errorf("Entries = %q, want [readme]", img.Entries)
	}
}

func TestInspect_NotISO(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.img")
	if err := os.WriteFile(path, []byte("not an iso at all"), 0644); err != nil {
		t.Fatal(err)
	}

	img, err := Inspect(path)
	if err != nil {
		t.Fatalf("Inspect() error: %v", err)
	}
	if img.Label != "" {
		t.Errorf("Label = %q, want empty", img.Label)
	}
	if img.Size != int64(len("not an iso at all")) {
		t.Errorf("Size = %d", img.Size)
	}
}

func TestInspect_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "missing.iso")},
		{"directory", dir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Inspect(tt.path); !errdefs.IsIO(err) {
				t.Errorf("Inspect() error = %v, want KindIO", err)
			}
		})
	}
}
