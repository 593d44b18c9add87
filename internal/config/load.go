// Package config provides the machine.toml schema: defaults, strict
// decoding and validation.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jbweber/qemubox/internal/errdefs"
)

// FilePermissions are the permissions for machine.toml.
const FilePermissions = 0644

// LoadFromFile loads and validates a machine config.
// Every failure is an *errdefs.Error: KindIO if the file cannot be read,
// KindConfig if it does not match the schema.
func LoadFromFile(path string) (*MachineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errdefs.IO("read config", path, err)
	}

	return Decode(data, path)
}

// Decode parses machine.toml content. path is used for error reporting only.
//
// Keys absent from the file take their Default values, so files written by
// earlier releases with fewer fields keep loading. Keys that are not part of
// the schema are rejected.
func Decode(data []byte, path string) (*MachineConfig, error) {
	file := fileFormat{Machine: Default()}

	md, err := toml.Decode(string(data), &file)
	if err != nil {
		var perr toml.ParseError
		if errors.As(err, &perr) {
			return nil, errdefs.Config(path, perr.LastKey, errors.New(perr.Error()))
		}
		return nil, errdefs.Config(path, "", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, errdefs.Config(path, keys[0], fmt.Errorf("unknown field(s): %s", strings.Join(keys, ", ")))
	}

	cfg := file.Machine
	if err := cfg.Validate(); err != nil {
		var ferr *FieldError
		if errors.As(err, &ferr) {
			return nil, errdefs.Config(path, ferr.Field, errors.New(ferr.Msg))
		}
		return nil, errdefs.Config(path, "", err)
	}

	return &cfg, nil
}

// Marshal serializes cfg in the machine.toml layout.
func Marshal(cfg *MachineConfig) ([]byte, error) {
	if cfg == nil {
		return nil, fmt.Errorf("machine configuration cannot be nil")
	}

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = ""
	if err := enc.Encode(fileFormat{Machine: *cfg}); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}

	return buf.Bytes(), nil
}

// SaveToFile writes cfg to path. The file is written to a temporary file in
// the same directory and renamed into place, so readers never see a partial
// config.
func SaveToFile(cfg *MachineConfig, path string) error {
	data, err := Marshal(cfg)
	if err != nil {
		return errdefs.IO("encode config", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errdefs.IO("write config", path, err)
	}

	cleanup := func() { _ = os.Remove(tmp.Name()) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return errdefs.IO("write config", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errdefs.IO("write config", path, err)
	}
	if err := os.Chmod(tmp.Name(), FilePermissions); err != nil {
		cleanup()
		return errdefs.IO("write config", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		cleanup()
		return errdefs.IO("write config", path, err)
	}

	return nil
}
