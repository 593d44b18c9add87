// Package libvirt renders machines as libvirt domain XML.
//
// qemubox starts qemu directly and never talks to a libvirt daemon. The
// export lets a machine be moved under libvirt management:
//
//	xml, err := libvirt.GenerateDomainXML(entry, "")
//	if err != nil {
//	    return err
//	}
//	// virsh define <(qemubox machine vm1 export-xml)
//
// The domain references the machine's files in place (disk image and UEFI
// variable store), so the machine directory must stay where it is.
package libvirt
