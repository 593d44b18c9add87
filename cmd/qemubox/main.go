package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jbweber/qemubox/internal/registry"
)

var (
	version = "dev"
	commit  = "unknown"
)

// Global flags
var (
	rootDir string
	verbose bool
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the CLI and returns the process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.Execute()
	if err == nil {
		return 0
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}

	reportError(stderr, err)
	return 1
}

// exitError carries a child process exit code out of a command without
// printing an error.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

var rootCmd = &cobra.Command{
	Use:   "qemubox",
	Short: "qemubox - manage qemu virtual machines in your home directory",
	Long: `qemubox manages a directory of qemu virtual machines.

Each machine is a directory holding a machine.toml config and a qcow2 disk
image. qemubox creates machines, runs them with qemu-system-x86_64, and
removes them.

Machines live in ~/.local/share/qemubox/machines unless --root or
$QEMUBOX_MACHINES_DIR says otherwise.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(cmd.ErrOrStderr(), verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "machines directory (default $QEMUBOX_MACHINES_DIR or ~/.local/share/qemubox/machines)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs and the hypervisor command line")

	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(machineCmd)
}

// setupLogging configures logrus. Only warnings are shown unless verbose.
func setupLogging(w io.Writer, verbose bool) {
	log.SetOutput(w)
	log.SetFormatter(&log.TextFormatter{
		DisableTimestamp: true,
	})
	if verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}
}

// openRegistry opens the registry selected by --root or the environment.
func openRegistry() (*registry.Registry, error) {
	root := rootDir
	if root == "" {
		var err error
		root, err = registry.DefaultRoot()
		if err != nil {
			return nil, err
		}
	}
	return registry.New(root)
}

// reportError prints err as a single diagnostic line.
func reportError(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "%s%s %v\n",
		color.New(color.FgHiRed, color.Bold).Sprint("error"),
		color.New(color.Bold).Sprint(":"),
		err)
}

// reportWarning prints a warning for the user.
func reportWarning(w io.Writer, msg string) {
	_, _ = fmt.Fprintf(w, "%s%s %s\n",
		color.New(color.FgHiYellow, color.Bold).Sprint("warning"),
		color.New(color.Bold).Sprint(":"),
		msg)
}
