package cli

import (
	"errors"
	"io/fs"
	"time"

	"github.com/atotto/clipboard"
	"github.com/hashicorp/go-hclog"

	"github.com/fahmaliyi/credvault/vault"
)

// Session ties a vault to the file and key it is saved under for the length
// of one interactive run.
type Session struct {
	Vault      *vault.Vault
	Path       string
	ClearAfter time.Duration
	Log        hclog.Logger

	key []byte
}

// NewSession takes ownership of key; Close wipes it.
func NewSession(v *vault.Vault, path string, key []byte, clearAfter time.Duration, log hclog.Logger) *Session {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Session{Vault: v, Path: path, ClearAfter: clearAfter, Log: log, key: key}
}

func (s *Session) Save() error { return s.Vault.Save(s.Path, s.key) }

func (s *Session) Load() error { return s.Vault.Load(s.Path, s.key) }

// Open loads the vault file if it exists. A missing file leaves the vault
// empty; it is created on the first save.
func (s *Session) Open() error {
	err := s.Load()
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		s.Log.Info("no vault file yet", "path", s.Path)
		return nil
	}
	return err
}

func (s *Session) Close() {
	vault.Zero(s.key)
}

var writeClipboard = clipboard.WriteAll

// CopyPassword puts the password of record i on the clipboard and clears it
// after ClearAfter. The returned timer can be stopped to keep it.
func (s *Session) CopyPassword(i int) (*time.Timer, error) {
	r, ok := s.Vault.Store().Get(i)
	if !ok {
		return nil, errors.New("no such entry")
	}
	if err := writeClipboard(r.Password); err != nil {
		return nil, err
	}
	if s.ClearAfter <= 0 {
		return nil, nil
	}
	return time.AfterFunc(s.ClearAfter, func() {
		if err := writeClipboard(""); err != nil {
			s.Log.Warn("cannot clear clipboard", "error", err)
		}
	}), nil
}
