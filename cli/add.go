package cli

import (
	"github.com/pkg/errors"

	"github.com/fahmaliyi/credvault/vault"
)

var errNoEntry = errors.New("entry not found")

// AddEntry adds an account and saves the vault. If the save fails the
// account is removed again so memory and file stay in step. password is
// wiped.
func AddEntry(s *Session, site, username string, password []byte) error {
	defer vault.Zero(password)

	if err := s.Vault.AddAccount(site, username, string(password)); err != nil {
		return err
	}
	if err := s.Save(); err != nil {
		s.Vault.Store().Delete(s.Vault.Store().Len() - 1)
		return err
	}
	return nil
}

// DeleteEntry removes the account at position i and saves the vault. If the
// save fails the account is put back where it was.
func DeleteEntry(s *Session, i int) error {
	store := s.Vault.Store()
	r, ok := store.Get(i)
	if !ok || !store.Delete(i) {
		return errNoEntry
	}
	if err := s.Save(); err != nil {
		if rerr := store.Insert(i, r); rerr != nil {
			s.Log.Error("cannot restore deleted entry", "error", rerr)
		}
		return err
	}
	return nil
}
