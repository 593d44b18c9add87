package vm

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/jbweber/qemubox/internal/config"
	"github.com/jbweber/qemubox/internal/errdefs"
	"github.com/jbweber/qemubox/internal/naming"
	"github.com/jbweber/qemubox/internal/qemu"
	"github.com/jbweber/qemubox/internal/registry"
)

// DefaultEditor is used when neither $VISUAL nor $EDITOR is set.
const DefaultEditor = "vi"

// EditOptions configures Edit.
type EditOptions struct {
	// Editor is the editor command split into words. Empty means
	// EditorCommand().
	Editor []string

	// Stdio for the editor; nil means the caller's own.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// EditorCommand returns the user's editor from $VISUAL, then $EDITOR,
// falling back to vi. The value is split on whitespace so "code --wait"
// works.
func EditorCommand() []string {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if fields := strings.Fields(os.Getenv(env)); len(fields) > 0 {
			return fields
		}
	}
	return []string{DefaultEditor}
}

// Edit opens the machine.toml of the machine called name in an editor,
// waits for it to exit, then loads the file again.
//
// The file is edited in place and never rolled back. If the edited config
// is invalid a KindConfig error is returned so the user can fix it; the
// machine stays unusable until they do. A machine whose config is already
// broken can be edited.
func Edit(ctx context.Context, reg *registry.Registry, name string, opts EditOptions) (*registry.Entry, error) {
	return editWithDeps(ctx, reg, name, opts, execRunner{})
}

// editWithDeps edits a machine config with an injected process runner.
func editWithDeps(ctx context.Context, reg *registry.Registry, name string, opts EditOptions, pr processRunner) (*registry.Entry, error) {
	dir, err := reg.Locate(name)
	if err != nil {
		return nil, err
	}
	cfgPath := naming.ConfigPath(dir)

	editor := opts.Editor
	if len(editor) == 0 {
		editor = EditorCommand()
	}

	log.Debugf("Opening %s with %s...", cfgPath, strings.Join(editor, " "))
	result, err := pr.Run(ctx, qemu.Process{
		Binary: editor[0],
		Role:   "editor",
		Args:   append(append([]string{}, editor[1:]...), cfgPath),
		Stdin:  opts.Stdin,
		Stdout: opts.Stdout,
		Stderr: opts.Stderr,
	})
	if err != nil {
		return nil, err
	}
	if !result.Success() {
		return nil, errdefs.Process("run editor", editor[0], fmt.Errorf("editor exited with status %d", result.ExitCode))
	}

	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		return nil, err
	}

	return &registry.Entry{Name: name, Dir: dir, Config: *cfg}, nil
}
