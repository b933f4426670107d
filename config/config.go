// Package config loads vault settings from defaults, a YAML file,
// CREDVAULT_* environment variables and command line overrides, in that order.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"

	"github.com/fahmaliyi/credvault/vault"
)

const EnvPrefix = "CREDVAULT_"

type Config struct {
	Vault     VaultConfig     `koanf:"vault"`
	Limits    LimitsConfig    `koanf:"limits"`
	Log       LogConfig       `koanf:"log"`
	Clipboard ClipboardConfig `koanf:"clipboard"`
}

type VaultConfig struct {
	Path     string `koanf:"path"`
	KeyFile  string `koanf:"keyfile"`
	Capacity int    `koanf:"capacity"`
	Cipher   string `koanf:"cipher"`
	Layout   string `koanf:"layout"`
}

type LimitsConfig struct {
	Site     int `koanf:"site"`
	Username int `koanf:"username"`
	Password int `koanf:"password"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

type ClipboardConfig struct {
	ClearAfter time.Duration `koanf:"clearafter"`
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	l := vault.DefaultLimits()
	return Config{
		Vault: VaultConfig{
			Path:     DefaultVaultPath(),
			Capacity: vault.DefaultCapacity,
			Cipher:   vault.SuiteAESGCM,
			Layout:   vault.LayoutFramed,
		},
		Limits:    LimitsConfig{Site: l.Site, Username: l.Username, Password: l.Password},
		Log:       LogConfig{Level: "warn"},
		Clipboard: ClipboardConfig{ClearAfter: 30 * time.Second},
	}
}

// DefaultVaultPath is ~/.go-vault/vault.data, or vault.data in the working
// directory when no home directory is known.
func DefaultVaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "vault.data"
	}
	return filepath.Join(home, ".go-vault", "vault.data")
}

// Load layers the YAML file at path (optional), the environment and
// overrides on top of Default. Override keys use dotted form, e.g.
// "vault.path".
func Load(path string, overrides map[string]any) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, errors.Wrapf(err, "cannot load config file %s", path)
		}
	}

	// CREDVAULT_VAULT_PATH -> vault.path
	transform := func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "_", ".")
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", transform), nil); err != nil {
		return Config{}, errors.Wrap(err, "cannot load environment")
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return Config{}, errors.Wrap(err, "cannot apply overrides")
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "cannot decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that New would otherwise reject later.
func (c Config) Validate() error {
	if c.Vault.Path == "" {
		return errors.New("vault.path must be set")
	}
	if c.Vault.Capacity <= 0 {
		return errors.Errorf("vault.capacity must be positive, got %d", c.Vault.Capacity)
	}
	if _, err := vault.NewCipher(c.Vault.Cipher); err != nil {
		return errors.Wrap(err, "vault.cipher")
	}
	if _, err := vault.NewCodec(c.Vault.Layout, c.VaultLimits()); err != nil {
		return errors.Wrap(err, "vault.layout")
	}
	return nil
}

func (c Config) VaultLimits() vault.Limits {
	return vault.Limits{Site: c.Limits.Site, Username: c.Limits.Username, Password: c.Limits.Password}
}

// VaultOptions translates the settings into vault.New options.
func (c Config) VaultOptions() []vault.Option {
	return []vault.Option{
		vault.WithCapacity(c.Vault.Capacity),
		vault.WithLimits(c.VaultLimits()),
		vault.WithCipherSuite(c.Vault.Cipher),
		vault.WithLayout(c.Vault.Layout),
	}
}
