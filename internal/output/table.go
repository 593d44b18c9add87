package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
)

const bytesPerMB = 1024 * 1024

// TableFormatter formats machines as human-readable tables.
type TableFormatter struct {
	// NoHeaders omits the header row.
	NoHeaders bool
}

// FormatMachine formats a single machine as a table row.
func (f *TableFormatter) FormatMachine(m *Machine) (string, error) {
	return f.FormatMachineList([]Machine{*m})
}

// FormatMachineList formats a list of machines as a table.
func (f *TableFormatter) FormatMachineList(ms []Machine) (string, error) {
	if len(ms) == 0 {
		return "No machines found\n", nil
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	// Write header unless NoHeaders is set
	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "NAME\tCPUS\tMEMORY\tVIDEO\tUEFI\tKVM\tDISK")
	}

	for _, m := range ms {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			m.Name,
			m.Config.CPUs,
			humanize.IBytes(uint64(m.Config.MemoryMB)*bytesPerMB),
			m.Config.Video,
			yesNo(m.Config.UEFI),
			yesNo(m.Config.KVM),
			diskColumn(m.Disk),
		)
	}

	_ = w.Flush()
	return buf.String(), nil
}

// diskColumn summarises a disk for the DISK column.
// Examples: "20 GiB", "missing", "unknown"
func diskColumn(d DiskStatus) string {
	switch {
	case !d.Present:
		return "missing"
	case d.VirtualSize > 0:
		return humanize.IBytes(d.VirtualSize)
	default:
		return "unknown"
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
