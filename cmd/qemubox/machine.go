package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jbweber/qemubox/internal/libvirt"
	"github.com/jbweber/qemubox/internal/output"
	"github.com/jbweber/qemubox/internal/registry"
	"github.com/jbweber/qemubox/internal/vm"
)

// Flags for machine actions
var (
	machineCDROM        string
	machineYes          bool
	machineOutputFormat string
)

// machineAction runs one action against the named machine.
type machineAction func(cmd *cobra.Command, reg *registry.Registry, name string) error

var machineActions = map[string]machineAction{
	"run":        runMachine,
	"remove":     removeMachine,
	"edit":       editMachine,
	"show":       showMachine,
	"export-xml": exportMachine,
}

func actionNames() []string {
	names := make([]string, 0, len(machineActions))
	for n := range machineActions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var machineCmd = &cobra.Command{
	Use:   "machine <name> <action>",
	Short: "Run, edit, show or remove a machine",
	Long: `Act on a single machine.

Actions:
  run         Start the machine and wait for qemu to exit
              --cd-rom PATH attaches an ISO image
  remove      Delete the machine directory (requires --yes)
  edit        Open machine.toml in $VISUAL or $EDITOR, then validate it
  show        Print the machine (-o table|yaml|json)
  export-xml  Print a libvirt domain definition for the machine

The exit status of "run" is qemu's exit status.`,
	Example: `  qemubox machine fedora run --cd-rom ~/Downloads/Fedora.iso
  qemubox machine fedora edit
  qemubox machine fedora remove --yes`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 {
			return fmt.Errorf("expected <name> <action>, got %d argument(s)", len(args))
		}
		if _, ok := machineActions[args[1]]; !ok {
			return fmt.Errorf("unknown action %q (valid actions: %s)", args[1], strings.Join(actionNames(), ", "))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		name, action := args[0], args[1]

		reg, err := openRegistry()
		if err != nil {
			return err
		}

		return machineActions[action](cmd, reg, name)
	},
}

func init() {
	machineCmd.Flags().StringVar(&machineCDROM, "cd-rom", "", "run: ISO image to attach as a CD-ROM")
	machineCmd.Flags().BoolVarP(&machineYes, "yes", "y", false, "remove: confirm deletion")
	machineCmd.Flags().StringVarP(&machineOutputFormat, "output", "o", string(output.FormatTable), "show: output format: table, yaml, json")
}

func runMachine(cmd *cobra.Command, reg *registry.Registry, name string) error {
	opts := vm.RunOptions{
		CDROM:  machineCDROM,
		Stdin:  cmd.InOrStdin(),
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	}
	if verbose {
		opts.CommandLine = cmd.ErrOrStderr()
	}

	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Launching %s...\n", color.New(color.FgHiGreen, color.Bold).Sprint(name))

	// Ctrl-C goes to qemu (same process group); qemubox keeps waiting so
	// it can report qemu's exit status.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)

	result, err := vm.Run(cmd.Context(), reg, name, opts)
	if err != nil {
		return err
	}

	if !result.Success() {
		if result.Signal != "" {
			reportWarning(cmd.ErrOrStderr(), fmt.Sprintf("qemu was killed by %s", result.Signal))
		}
		return &exitError{code: result.ExitCode}
	}
	return nil
}

func removeMachine(cmd *cobra.Command, reg *registry.Registry, name string) error {
	result, err := vm.Remove(reg, name, machineYes)
	if err != nil {
		return err
	}

	if !result.Removed {
		reportWarning(cmd.ErrOrStderr(), fmt.Sprintf(
			"are you sure? This will remove %s and all of its contents.\nRun with --yes to confirm.", result.Path))
		return nil
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", result.Name)
	return nil
}

func editMachine(cmd *cobra.Command, reg *registry.Registry, name string) error {
	entry, err := vm.Edit(cmd.Context(), reg, name, vm.EditOptions{
		Stdin:  cmd.InOrStdin(),
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", entry.ConfigPath())
	return nil
}

func showMachine(cmd *cobra.Command, reg *registry.Registry, name string) error {
	if err := output.ValidateFormat(machineOutputFormat); err != nil {
		return err
	}

	entry, err := reg.Find(name)
	if err != nil {
		return err
	}

	formatter, err := output.NewFormatter(output.Options{Format: output.Format(machineOutputFormat)})
	if err != nil {
		return err
	}

	m := output.NewMachine(entry)
	result, err := formatter.FormatMachine(&m)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	_, _ = fmt.Fprint(cmd.OutOrStdout(), result)
	return nil
}

func exportMachine(cmd *cobra.Command, reg *registry.Registry, name string) error {
	entry, err := reg.Find(name)
	if err != nil {
		return err
	}

	xml, err := libvirt.GenerateDomainXML(entry, machineCDROM)
	if err != nil {
		return err
	}

	return writeLine(cmd.OutOrStdout(), xml)
}

func writeLine(w io.Writer, s string) error {
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	_, err := io.WriteString(w, s)
	return err
}
