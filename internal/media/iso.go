// Package media inspects installer images passed to a machine as a CD-ROM.
package media

import (
	"fmt"
	"os"

	"github.com/kdomanski/iso9660"

	"github.com/jbweber/qemubox/internal/errdefs"
)

// Image describes a CD-ROM image file.
type Image struct {
	// Path is the image path as given.
	Path string

	// Size is the file size in bytes.
	Size int64

	// Label is the ISO9660 volume identifier, empty if the file is not an
	// ISO9660 image (hybrid or raw images still boot).
	Label string

	// Entries lists the names in the image's root directory.
	Entries []string
}

// Inspect checks that path is a readable regular file and, if it is an
// ISO9660 image, reads its volume label and root directory.
//
// A missing or unreadable file is a KindIO error. A file that is not
// ISO9660 is not an error; qemu accepts any image as a CD-ROM.
func Inspect(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errdefs.IO("open cd-rom image", path, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, errdefs.IO("stat cd-rom image", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, errdefs.IO("open cd-rom image", path, fmt.Errorf("not a regular file"))
	}

	img := &Image{Path: path, Size: info.Size()}

	iso, err := iso9660.OpenImage(f)
	if err != nil {
		return img, nil
	}

	label, err := iso.Label()
	if err != nil {
		return img, nil
	}
	img.Label = label

	root, err := iso.RootDir()
	if err != nil {
		return img, nil
	}
	children, err := root.GetChildren()
	if err != nil {
		return img, nil
	}
	for _, c := range children {
		img.Entries = append(img.Entries, c.Name())
	}

	return img, nil
}
