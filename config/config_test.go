package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fahmaliyi/credvault/vault"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Default()
	if cfg != want {
		t.Errorf("Load() = %+v, want %+v", cfg, want)
	}
	if cfg.VaultLimits() != vault.DefaultLimits() {
		t.Errorf("VaultLimits() = %+v", cfg.VaultLimits())
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
vault:
  path: /tmp/accounts.dat
  cipher: chacha20-poly1305
  layout: slotted
limits:
  site: 120
clipboard:
  clearafter: 10s
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Vault.Path != "/tmp/accounts.dat" {
		t.Errorf("Vault.Path = %q", cfg.Vault.Path)
	}
	if cfg.Vault.Cipher != vault.SuiteChaCha20Poly1305 {
		t.Errorf("Vault.Cipher = %q", cfg.Vault.Cipher)
	}
	if cfg.Vault.Layout != vault.LayoutSlotted {
		t.Errorf("Vault.Layout = %q", cfg.Vault.Layout)
	}
	if cfg.Vault.Capacity != vault.DefaultCapacity {
		t.Errorf("Vault.Capacity = %d, default should survive", cfg.Vault.Capacity)
	}
	if cfg.Limits.Site != 120 || cfg.Limits.Username != 49 {
		t.Errorf("Limits = %+v", cfg.Limits)
	}
	if cfg.Clipboard.ClearAfter != 10*time.Second {
		t.Errorf("Clipboard.ClearAfter = %v", cfg.Clipboard.ClearAfter)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestLoad_EnvAndOverrides(t *testing.T) {
	t.Setenv("CREDVAULT_VAULT_CAPACITY", "7")
	t.Setenv("CREDVAULT_VAULT_PATH", "/from/env")

	cfg, err := Load("", map[string]any{"vault.path": "/from/flag"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Vault.Capacity != 7 {
		t.Errorf("Vault.Capacity = %d, want 7", cfg.Vault.Capacity)
	}
	if cfg.Vault.Path != "/from/flag" {
		t.Errorf("Vault.Path = %q, overrides should win over env", cfg.Vault.Path)
	}
}

func TestLoad_OverridesMergeWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
vault:
  path: /tmp/accounts.dat
  cipher: chacha20-poly1305
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(path, map[string]any{
		"vault.layout":         vault.LayoutSlotted,
		"clipboard.clearafter": "5s",
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Vault.Path != "/tmp/accounts.dat" || cfg.Vault.Cipher != vault.SuiteChaCha20Poly1305 {
		t.Errorf("Vault = %+v, file settings should survive overrides", cfg.Vault)
	}
	if cfg.Vault.Layout != vault.LayoutSlotted {
		t.Errorf("Vault.Layout = %q", cfg.Vault.Layout)
	}
	if cfg.Clipboard.ClearAfter != 5*time.Second {
		t.Errorf("Clipboard.ClearAfter = %v", cfg.Clipboard.ClearAfter)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]any
	}{
		{"unknown cipher", map[string]any{"vault.cipher": "des"}},
		{"unknown layout", map[string]any{"vault.layout": "csv"}},
		{"zero capacity", map[string]any{"vault.capacity": 0}},
		{"empty path", map[string]any{"vault.path": ""}},
		{"zero limit", map[string]any{"limits.password": 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load("", tt.overrides); err == nil {
				t.Error("Load() should fail")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil); err == nil {
		t.Error("Load() of a missing file should fail")
	}
}

func TestVaultOptions(t *testing.T) {
	cfg := Default()
	cfg.Vault.Capacity = 2
	v, err := vault.New(cfg.VaultOptions()...)
	if err != nil {
		t.Fatalf("vault.New() error = %v", err)
	}
	if v.Store().Capacity() != 2 {
		t.Errorf("Capacity() = %d, want 2", v.Store().Capacity())
	}
}
