// Package target loads a target descriptor from a cflat.toml file and
// resolves it to one of the supported architectures.
package target

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"

	"cflat/internal/ir"
)

// Config is the [target] section of a cflat.toml descriptor.
type Config struct {
	// Arch names the architecture, e.g. "x86_64" or "arm64". Alternate
	// names ("amd64", "aarch64") are accepted.
	Arch string `toml:"arch"`

	// Module optionally overrides the module name.
	Module string `toml:"module"`
}

type descriptor struct {
	Target Config `toml:"target"`
}

// ErrTargetSectionMissing indicates that [target] is missing in a descriptor.
var ErrTargetSectionMissing = errors.New("missing [target]")

// Load parses a descriptor file and resolves its architecture.
func Load(path string) (*Config, *ir.Arch, error) {
	var cfg descriptor
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("target") {
		return nil, nil, fmt.Errorf("%s: %w", path, ErrTargetSectionMissing)
	}
	arch, err := Resolve(cfg.Target.Arch)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg.Target, arch, nil
}

// Resolve maps an architecture name to its descriptor. The empty name
// defaults to x86_64.
func Resolve(name string) (*ir.Arch, error) {
	if name == "" {
		return ir.ArchX86_64, nil
	}
	if arch := ir.LookupArch(name); arch != nil {
		return arch, nil
	}
	return nil, fmt.Errorf("unknown target architecture %q", name)
}
