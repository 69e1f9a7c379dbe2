package target

import (
	"os"
	"path/filepath"
	"testing"

	"cflat/internal/ir"
)

func writeDescriptor(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cflat.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeDescriptor(t, "[target]\narch = \"arm64\"\nmodule = \"kernel\"\n")

	cfg, arch, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if arch != ir.ArchARM64 {
		t.Errorf("arch = %v, want arm64", arch.Name)
	}
	if cfg.Module != "kernel" {
		t.Errorf("module = %q, want kernel", cfg.Module)
	}
}

func TestLoadAltName(t *testing.T) {
	path := writeDescriptor(t, "[target]\narch = \"amd64\"\n")

	_, arch, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if arch != ir.ArchX86_64 {
		t.Errorf("arch = %v, want x86_64", arch.Name)
	}
}

func TestLoadMissingSection(t *testing.T) {
	path := writeDescriptor(t, "module = \"kernel\"\n")

	if _, _, err := Load(path); err == nil {
		t.Fatal("want error for missing [target] section")
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		want *ir.Arch
		ok   bool
	}{
		{"", ir.ArchX86_64, true},
		{"x86_64", ir.ArchX86_64, true},
		{"i386", ir.ArchX86, true},
		{"aarch32", ir.ArchARM32, true},
		{"riscv", nil, false},
	}
	for _, tt := range tests {
		arch, err := Resolve(tt.name)
		if tt.ok != (err == nil) {
			t.Errorf("Resolve(%q) error = %v", tt.name, err)
			continue
		}
		if arch != tt.want {
			t.Errorf("Resolve(%q) = %v, want %v", tt.name, arch, tt.want)
		}
	}
}
