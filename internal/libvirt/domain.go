package libvirt

import (
	"fmt"

	"github.com/google/uuid"
	"libvirt.org/go/libvirtxml"

	"github.com/jbweber/qemubox/internal/config"
	"github.com/jbweber/qemubox/internal/naming"
	"github.com/jbweber/qemubox/internal/qemu"
	"github.com/jbweber/qemubox/internal/registry"
)

// videoModels maps each video mode to its libvirt video model type.
var videoModels = map[config.VideoMode]string{
	config.VideoStandard: "vga",
	config.VideoVirtio:   "virtio",
	config.VideoQXL:      "qxl",
	config.VideoNone:     "none",
}

// DomainUUID returns a stable UUID for the machine in dir. The same
// directory always yields the same UUID, so exporting twice defines the
// same domain.
func DomainUUID(dir string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+dir)).String()
}

// GenerateDomainXML generates libvirt domain XML for a machine, attaching
// cdrom as a read-only CD-ROM if it is non-empty.
func GenerateDomainXML(entry *registry.Entry, cdrom string) (string, error) {
	cfg := &entry.Config

	model, ok := videoModels[cfg.Video]
	if !ok {
		return "", fmt.Errorf("unsupported video mode %q", cfg.Video)
	}

	domainType := "qemu"
	if cfg.KVM {
		domainType = "kvm"
	}

	domain := &libvirtxml.Domain{
		Type:        domainType,
		Name:        entry.Name,
		UUID:        DomainUUID(entry.Dir),
		Description: "qemubox machine " + entry.Dir,
		Memory: &libvirtxml.DomainMemory{
			Value: uint(cfg.MemoryMB),
			Unit:  "MiB",
		},
		VCPU: &libvirtxml.DomainVCPU{
			Placement: "static",
			Value:     uint(cfg.CPUs),
		},
		OS: &libvirtxml.DomainOS{
			Type: &libvirtxml.DomainOSType{
				Arch: "x86_64",
				Type: "hvm",
			},
		},
		Features: &libvirtxml.DomainFeatureList{
			ACPI: &libvirtxml.DomainFeature{},
			APIC: &libvirtxml.DomainFeatureAPIC{},
		},
		Clock: &libvirtxml.DomainClock{
			Offset: "utc",
		},
		OnPoweroff: "destroy",
		OnReboot:   "restart",
		OnCrash:    "destroy",
		Devices: &libvirtxml.DomainDeviceList{
			Emulator: qemu.Binary(),
			Videos: []libvirtxml.DomainVideo{
				{Model: libvirtxml.DomainVideoModel{Type: model}},
			},
		},
	}

	if cfg.UEFI {
		domain.OS.Loader = &libvirtxml.DomainLoader{
			Path:     qemu.OVMFCodePath(),
			Readonly: "yes",
			Type:     "pflash",
		}
		domain.OS.NVRam = &libvirtxml.DomainNVRam{
			NVRam:    naming.OVMFVarsPath(entry.Dir),
			Template: qemu.OVMFVarsTemplatePath(),
		}
	}

	// Add boot disk (file-based)
	bootDisk := libvirtxml.DomainDisk{
		Device: "disk",
		Driver: &libvirtxml.DomainDiskDriver{
			Name: "qemu",
			Type: "qcow2",
		},
		Source: &libvirtxml.DomainDiskSource{
			File: &libvirtxml.DomainDiskSourceFile{
				File: entry.DiskPath(),
			},
		},
		Target: &libvirtxml.DomainDiskTarget{
			Dev: "vda",
			Bus: "virtio",
		},
		Boot: &libvirtxml.DomainDeviceBoot{
			Order: 1,
		},
	}
	domain.Devices.Disks = append(domain.Devices.Disks, bootDisk)

	if cdrom != "" {
		cd := libvirtxml.DomainDisk{
			Device: "cdrom",
			Driver: &libvirtxml.DomainDiskDriver{
				Name: "qemu",
				Type: "raw",
			},
			Source: &libvirtxml.DomainDiskSource{
				File: &libvirtxml.DomainDiskSourceFile{
					File: cdrom,
				},
			},
			Target: &libvirtxml.DomainDiskTarget{
				Dev: "sda",
				Bus: "sata",
			},
			ReadOnly: &libvirtxml.DomainDiskReadOnly{},
			Boot: &libvirtxml.DomainDeviceBoot{
				Order: 2,
			},
		}
		domain.Devices.Disks = append(domain.Devices.Disks, cd)
	}

	// Serial console, matching -nographic for headless machines
	domain.Devices.Serials = []libvirtxml.DomainSerial{
		{
			Source: &libvirtxml.DomainChardevSource{
				Pty: &libvirtxml.DomainChardevSourcePty{},
			},
			Target: &libvirtxml.DomainSerialTarget{
				Port: func() *uint { p := uint(0); return &p }(),
			},
		},
	}

	xml, err := domain.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to marshal domain XML: %w", err)
	}

	return xml, nil
}
