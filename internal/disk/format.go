package disk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Format is a disk image format.
type Format string

const (
	// FormatQCOW2 is the qemu copy-on-write format.
	FormatQCOW2 Format = "qcow2"
	// FormatRaw is a raw image with a boot sector signature.
	FormatRaw Format = "raw"
)

var (
	// qcow2Magic is "QFI" followed by 0xfb at offset 0.
	// Reference: https://www.qemu.org/docs/master/interop/qcow2.html
	qcow2Magic = []byte{0x51, 0x46, 0x49, 0xfb}

	// mbrSignature is the boot sector signature at offset 510.
	mbrSignature = []byte{0x55, 0xaa}
)

// qcow2 header layout (big-endian):
//
//	0  magic   uint32
//	4  version uint32
//	24 size    uint64 (virtual disk size in bytes)
const qcow2HeaderLen = 32

// ImageInfo describes a disk image file.
type ImageInfo struct {
	Format Format

	// VirtualSize is the guest-visible size in bytes.
	VirtualSize uint64

	// FileSize is the space the file occupies on the host, in bytes.
	FileSize int64
}

// ErrUnknownFormat is returned by Inspect for files that are neither qcow2
// nor a bootable raw image.
var ErrUnknownFormat = errors.New("unsupported or invalid image: not qcow2 and missing boot sector signature")

// Inspect reads the header of the image at path.
//
// qcow2 images report the virtual size from the header. Raw images are
// recognised by the MBR signature at offset 510 and report the file size as
// their virtual size.
func Inspect(path string) (ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImageInfo{}, err
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return ImageInfo{}, err
	}

	header := make([]byte, 512)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return ImageInfo{}, fmt.Errorf("failed to read image header: %w", err)
	}
	header = header[:n]

	if len(header) >= qcow2HeaderLen && bytes.Equal(header[:4], qcow2Magic) {
		return ImageInfo{
			Format:      FormatQCOW2,
			VirtualSize: binary.BigEndian.Uint64(header[24:32]),
			FileSize:    st.Size(),
		}, nil
	}

	if len(header) == 512 && bytes.Equal(header[510:512], mbrSignature) {
		return ImageInfo{
			Format:      FormatRaw,
			VirtualSize: uint64(st.Size()),
			FileSize:    st.Size(),
		}, nil
	}

	return ImageInfo{}, ErrUnknownFormat
}
