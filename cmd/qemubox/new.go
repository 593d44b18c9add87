package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jbweber/qemubox/internal/errdefs"
	"github.com/jbweber/qemubox/internal/vm"
)

var newDiskSize string

var newCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a machine",
	Long: `Create a new machine with a default machine.toml and an empty qcow2 disk.

The disk size is in megabytes unless it has a unit suffix:
  qemubox new fedora --disk-size 20480
  qemubox new fedora --disk-size 20G

Edit the machine afterwards with "qemubox machine <name> edit".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		sizeMB, err := parseDiskSize(newDiskSize)
		if err != nil {
			return errdefs.Invalid("create machine", name, err)
		}

		reg, err := openRegistry()
		if err != nil {
			return err
		}

		entry, err := vm.Create(cmd.Context(), reg, name, sizeMB)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created %s in %s\n",
			color.New(color.FgHiGreen, color.Bold).Sprint(entry.Name), entry.Dir)
		return nil
	},
}

func init() {
	newCmd.Flags().StringVarP(&newDiskSize, "disk-size", "s", "", "disk size, in MB or with a unit (512M, 20G)")
	_ = newCmd.MarkFlagRequired("disk-size")
}

// parseDiskSize converts a --disk-size value to megabytes. A bare integer
// is megabytes; anything else is parsed as a binary size and rounded up to
// a whole megabyte.
func parseDiskSize(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("disk size is required")
	}

	if mb, err := strconv.Atoi(s); err == nil {
		if mb <= 0 {
			return 0, fmt.Errorf("disk size must be > 0, got %q", s)
		}
		return mb, nil
	}

	bytes, err := units.RAMInBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid disk size %q: %w", s, err)
	}
	if bytes <= 0 {
		return 0, fmt.Errorf("disk size must be > 0, got %q", s)
	}

	return int((bytes + units.MiB - 1) / units.MiB), nil
}
