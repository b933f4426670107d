package cli

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	ucli "github.com/urfave/cli/v2"

	"github.com/fahmaliyi/credvault/config"
	"github.com/fahmaliyi/credvault/vault"
)

// Build information, set via ldflags.
var Version = "dev"

const (
	metaConfig = "config"
	metaLogger = "logger"
)

// App creates the command line application.
func App() *ucli.App {
	return &ucli.App{
		Name:    "vault",
		Usage:   "keep site credentials in an encrypted file",
		Version: Version,
		Flags:   globalFlags(),
		Before:  before,
		Action:  shellAction,
		Commands: []*ucli.Command{
			{
				Name:   "shell",
				Usage:  "interactive menu (default)",
				Action: shellAction,
			},
			{
				Name:   "tui",
				Usage:  "full-screen browser",
				Action: tuiAction,
			},
			{
				Name:      "add",
				Usage:     "add an account; the password is prompted for",
				ArgsUsage: "SITE USERNAME",
				Action:    addAction,
			},
			{
				Name:  "list",
				Usage: "list sites and usernames",
				Flags: []ucli.Flag{
					&ucli.BoolFlag{Name: "show-passwords", Usage: "print passwords too"},
				},
				Action: listAction,
			},
			{
				Name:      "copy",
				Usage:     "copy the password of SITE to the clipboard",
				ArgsUsage: "SITE",
				Action:    copyAction,
			},
		},
	}
}

func globalFlags() []ucli.Flag {
	return []ucli.Flag{
		&ucli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML configuration file",
			EnvVars: []string{"CREDVAULT_CONFIG"},
		},
		&ucli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "vault file (default ~/.go-vault/vault.data)",
		},
		&ucli.StringFlag{
			Name:    "key-file",
			Aliases: []string{"k"},
			Usage:   "file holding the 32-byte key, raw or hex; prompted for when unset",
		},
		&ucli.StringFlag{
			Name:  "cipher",
			Usage: "aes-256-gcm or chacha20-poly1305",
		},
		&ucli.StringFlag{
			Name:  "layout",
			Usage: "framed, or slotted for files written by the legacy tool",
		},
		&ucli.StringFlag{
			Name:  "log-level",
			Usage: "trace, debug, info, warn or error",
		},
	}
}

// flagOverrides maps explicitly set flags onto config keys.
var flagOverrides = map[string]string{
	"file":      "vault.path",
	"key-file":  "vault.keyfile",
	"cipher":    "vault.cipher",
	"layout":    "vault.layout",
	"log-level": "log.level",
}

func before(c *ucli.Context) error {
	overrides := make(map[string]any)
	for flag, key := range flagOverrides {
		if c.IsSet(flag) {
			overrides[key] = c.String(flag)
		}
	}
	cfg, err := config.Load(c.String("config"), overrides)
	if err != nil {
		return err
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "vault",
		Level:  hclog.LevelFromString(cfg.Log.Level),
		Output: c.App.ErrWriter,
	})

	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]interface{})
	}
	c.App.Metadata[metaConfig] = cfg
	c.App.Metadata[metaLogger] = logger
	return nil
}

func contextConfig(c *ucli.Context) (config.Config, hclog.Logger) {
	cfg, ok := c.App.Metadata[metaConfig].(config.Config)
	if !ok {
		cfg = config.Default()
	}
	logger, ok := c.App.Metadata[metaLogger].(hclog.Logger)
	if !ok {
		logger = hclog.NewNullLogger()
	}
	return cfg, logger
}

// openSession builds the vault from configuration, obtains the key and
// loads the existing file.
func openSession(c *ucli.Context, p *Prompter) (*Session, error) {
	cfg, logger := contextConfig(c)

	v, err := vault.New(append(cfg.VaultOptions(), vault.WithLogger(logger))...)
	if err != nil {
		return nil, err
	}
	if err := EnsureVaultDir(cfg.Vault.Path); err != nil {
		return nil, err
	}

	var key []byte
	if cfg.Vault.KeyFile != "" {
		key, err = ReadKeyFile(cfg.Vault.KeyFile)
	} else {
		key, err = p.Key(fmt.Sprintf("Enter the encryption key (%d bytes): ", vault.KeyLen))
	}
	if err != nil {
		return nil, describeErr(err)
	}

	s := NewSession(v, cfg.Vault.Path, key, cfg.Clipboard.ClearAfter, logger)
	if err := s.Open(); err != nil {
		s.Close()
		return nil, describeErr(err)
	}
	return s, nil
}

// describeErr keeps the error chain but leads with the user-facing text.
func describeErr(err error) error {
	if vault.KindOf(err) == vault.KindUnknown {
		return err
	}
	return errors.WithMessage(err, Describe(err))
}

func shellAction(c *ucli.Context) error {
	p := StdPrompter()
	s, err := openSession(c, p)
	if err != nil {
		return err
	}
	defer s.Close()

	RunCommands(s, p, c.App.Writer)
	return nil
}

func tuiAction(c *ucli.Context) error {
	s, err := openSession(c, StdPrompter())
	if err != nil {
		return err
	}
	defer s.Close()

	return RunTUI(s)
}

func addAction(c *ucli.Context) error {
	if c.NArg() != 2 {
		return ucli.Exit("usage: vault add SITE USERNAME", 2)
	}
	p := StdPrompter()
	s, err := openSession(c, p)
	if err != nil {
		return err
	}
	defer s.Close()

	password, err := p.Secret("Password: ")
	if err != nil {
		return errors.Wrap(err, "cannot read password")
	}
	if err := AddEntry(s, c.Args().Get(0), c.Args().Get(1), password); err != nil {
		return describeErr(err)
	}
	fmt.Fprintln(c.App.Writer, "Account added successfully.")
	return nil
}

func listAction(c *ucli.Context) error {
	s, err := openSession(c, StdPrompter())
	if err != nil {
		return err
	}
	defer s.Close()

	records := s.Vault.ListAccounts()
	if len(records) == 0 {
		fmt.Fprintln(c.App.Writer, "No accounts found.")
		return nil
	}
	for _, r := range records {
		if c.Bool("show-passwords") {
			fmt.Fprintf(c.App.Writer, "%s\t%s\t%s\n", r.Site, r.Username, r.Password)
		} else {
			fmt.Fprintf(c.App.Writer, "%s\t%s\n", r.Site, r.Username)
		}
	}
	return nil
}

func copyAction(c *ucli.Context) error {
	if c.NArg() != 1 {
		return ucli.Exit("usage: vault copy SITE", 2)
	}
	s, err := openSession(c, StdPrompter())
	if err != nil {
		return err
	}
	defer s.Close()

	i := s.Vault.Store().Find(c.Args().First())
	if i < 0 {
		return ucli.Exit(fmt.Sprintf("no account for %s", c.Args().First()), 1)
	}
	timer, err := s.CopyPassword(i)
	if err != nil {
		return errors.Wrap(err, "cannot copy password")
	}
	if timer == nil {
		fmt.Fprintln(c.App.Writer, "Password copied to clipboard.")
		return nil
	}

	// Clear in the foreground; the timer would die with the process.
	timer.Stop()
	fmt.Fprintf(c.App.Writer, "Password copied to clipboard. Clearing in %s...\n", s.ClearAfter)
	time.Sleep(s.ClearAfter)
	if err := writeClipboard(""); err != nil {
		return errors.Wrap(err, "cannot clear clipboard")
	}
	return nil
}
