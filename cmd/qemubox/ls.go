package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jbweber/qemubox/internal/output"
	"github.com/jbweber/qemubox/internal/vm"
)

var (
	lsOutputFormat string
	lsNoHeaders    bool
)

var lsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List machines",
	Long: `List all machines in the machines directory.

A machine.toml that fails to load stops the listing with an error naming
the file; fix it with "qemubox machine <name> edit".

Output formats:
  -o table  Human-readable table (default)
  -o yaml   YAML stream, one document per machine
  -o json   JSON array`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := output.ValidateFormat(lsOutputFormat); err != nil {
			return err
		}

		reg, err := openRegistry()
		if err != nil {
			return err
		}

		entries, err := vm.List(reg)
		if err != nil {
			return err
		}

		if len(entries) == 0 && output.Format(lsOutputFormat) == output.FormatTable {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), color.New(color.Bold).Sprint("No machines found."))
			return nil
		}

		formatter, err := output.NewFormatter(output.Options{
			Format:    output.Format(lsOutputFormat),
			NoHeaders: lsNoHeaders,
		})
		if err != nil {
			return err
		}

		result, err := formatter.FormatMachineList(output.NewMachines(entries))
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}

		_, _ = fmt.Fprint(cmd.OutOrStdout(), result)
		return nil
	},
}

func init() {
	lsCmd.Flags().StringVarP(&lsOutputFormat, "output", "o", string(output.FormatTable), "output format: table, yaml, json")
	lsCmd.Flags().BoolVar(&lsNoHeaders, "no-headers", false, "omit the table header")
}
