package cli

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/fahmaliyi/credvault/vault"
)

// EnsureVaultDir creates the directory that will hold the vault file.
func EnsureVaultDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.Wrapf(err, "cannot create %s", dir)
	}
	return nil
}

// ParseKey accepts exactly 32 raw bytes or 64 hex digits. Shorter keys are
// rejected rather than padded. One trailing line terminator is dropped only
// when input is longer than a raw key, so a raw key may end in '\n'. input is
// wiped.
func ParseKey(input []byte) ([]byte, error) {
	defer vault.Zero(input)
	in := input
	if len(in) > vault.KeyLen {
		in = bytes.TrimSuffix(in, []byte("\n"))
	}
	if len(in) > vault.KeyLen {
		in = bytes.TrimSuffix(in, []byte("\r"))
	}

	switch len(in) {
	case vault.KeyLen:
		key := make([]byte, vault.KeyLen)
		copy(key, in)
		return key, nil
	case 2 * vault.KeyLen:
		key := make([]byte, vault.KeyLen)
		if _, err := hex.Decode(key, in); err == nil {
			return key, nil
		}
		vault.Zero(key)
	}
	return nil, &vault.Error{
		Kind:   vault.InvalidKeyLength,
		Op:     "key",
		Detail: fmt.Sprintf("want %d bytes or %d hex digits, got %d bytes", vault.KeyLen, 2*vault.KeyLen, len(in)),
	}
}

// ReadKeyFile reads a key stored as raw bytes or hex in path.
func ReadKeyFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read key file %s", path)
	}
	return ParseKey(raw)
}

// Prompter reads answers from one buffered input. Secrets are read without
// echo when the input is a terminal.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
	tty bool
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok {
		p.fd = int(f.Fd())
		p.tty = term.IsTerminal(p.fd)
	}
	return p
}

// StdPrompter prompts on stderr so that stdout stays clean for listings.
func StdPrompter() *Prompter { return NewPrompter(os.Stdin, os.Stderr) }

// Line returns the next input line with surrounding spaces removed.
func (p *Prompter) Line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Secret reads a line without echo. The result is never trimmed of spaces.
func (p *Prompter) Secret(prompt string) ([]byte, error) {
	fmt.Fprint(p.out, prompt)
	if p.tty {
		pw, err := term.ReadPassword(p.fd)
		fmt.Fprintln(p.out)
		return pw, err
	}
	line, err := p.in.ReadBytes('\n')
	if err != nil && (err != io.EOF || len(line) == 0) {
		return nil, err
	}
	return bytes.TrimRight(line, "\r\n"), nil
}

// Key prompts for the vault key.
func (p *Prompter) Key(prompt string) ([]byte, error) {
	raw, err := p.Secret(prompt)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read key")
	}
	return ParseKey(raw)
}

// Describe turns a vault error into a message for the terminal.
func Describe(err error) string {
	switch vault.KindOf(err) {
	case vault.CapacityExceeded:
		return "Cannot add more accounts. Maximum limit reached."
	case vault.FieldTooLong:
		return "Invalid site, username, or password length."
	case vault.InvalidField:
		return "Site, username and password may not contain ':' or control characters."
	case vault.AuthenticationFailed:
		return "Cannot open vault: wrong key, or the file was corrupted or tampered with."
	case vault.TruncatedFile, vault.MalformedRecord:
		return "Vault file is damaged and cannot be read."
	case vault.InvalidKeyLength:
		return fmt.Sprintf("The key must be exactly %d bytes (or %d hex digits).", vault.KeyLen, 2*vault.KeyLen)
	case vault.IOError:
		return "File error: " + err.Error()
	}
	return err.Error()
}
