package cli

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fahmaliyi/credvault/vault"
)

type fakeClipboard struct {
	mu     sync.Mutex
	writes []string
}

func (f *fakeClipboard) write(s string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, s)
	return nil
}

func (f *fakeClipboard) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.writes...)
}

func stubClipboard(t *testing.T) *fakeClipboard {
	t.Helper()
	fc := &fakeClipboard{}
	orig := writeClipboard
	writeClipboard = fc.write
	t.Cleanup(func() { writeClipboard = orig })
	return fc
}

func newTestSession(t *testing.T, clearAfter time.Duration) *Session {
	t.Helper()
	v, err := vault.New()
	if err != nil {
		t.Fatalf("vault.New() error = %v", err)
	}
	path := filepath.Join(t.TempDir(), "vault.data")
	return NewSession(v, path, bytes.Repeat([]byte{0x01}, vault.KeyLen), clearAfter, nil)
}

func TestRunCommands(t *testing.T) {
	fc := stubClipboard(t)
	s := newTestSession(t, 0)

	script := strings.Join([]string{
		"a", "example.com", "alice", "s3cret",
		"a", "bad:site", "bob", "pw",
		"l",
		"s 1",
		"c 1",
		"s 9",
		"w",
		"r",
		"x",
		"d 1",
		"l",
		"q",
	}, "\n") + "\n"

	var out bytes.Buffer
	RunCommands(s, NewPrompter(strings.NewReader(script), &out), &out)
	got := out.String()

	for _, want := range []string{
		"Account added successfully.",
		"may not contain ':'",
		"1) Site: example.com | Username: alice",
		"Password: s3cret",
		"Password copied to clipboard.",
		"Invalid item number",
		"Accounts saved to file.",
		"Accounts loaded from file.",
		"Unknown command",
		"Entry deleted!",
		"No accounts found.",
		"Exiting.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q\n%s", want, got)
		}
	}
	if strings.Contains(got, "bad:site | ") {
		t.Error("invalid account was listed")
	}

	if w := fc.snapshot(); len(w) != 1 || w[0] != "s3cret" {
		t.Errorf("clipboard writes = %q", w)
	}

	reloaded := newTestSession(t, 0)
	reloaded.Path = s.Path
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if n := reloaded.Vault.Store().Len(); n != 0 {
		t.Errorf("vault file holds %d accounts after delete, want 0", n)
	}
}

func TestRunCommands_EndOfInput(t *testing.T) {
	s := newTestSession(t, 0)
	var out bytes.Buffer
	RunCommands(s, NewPrompter(strings.NewReader("l\n"), &out), &out)
	if !strings.HasSuffix(strings.TrimSpace(out.String()), "Exiting.") {
		t.Errorf("RunCommands did not stop at end of input:\n%s", out.String())
	}
}

func TestAddEntry_RollsBackOnSaveFailure(t *testing.T) {
	s := newTestSession(t, 0)
	s.Path = filepath.Join(t.TempDir(), "missing-dir", "vault.data")

	err := AddEntry(s, "a.com", "u", []byte("p"))
	if !errors.Is(err, vault.ErrIO) {
		t.Fatalf("AddEntry() error = %v, want IOError", err)
	}
	if n := s.Vault.Store().Len(); n != 0 {
		t.Errorf("store holds %d accounts after failed save", n)
	}
}

func TestDeleteEntry_RestoresOnSaveFailure(t *testing.T) {
	s := newTestSession(t, 0)
	_ = s.Vault.AddAccount("a.com", "u1", "p1")
	_ = s.Vault.AddAccount("b.com", "u2", "p2")
	_ = s.Vault.AddAccount("c.com", "u3", "p3")
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	want := s.Vault.ListAccounts()

	s.key = s.key[:5]
	var out bytes.Buffer
	handleDelete(s, 1, &out)
	if !strings.Contains(out.String(), "Error saving vault") {
		t.Errorf("handleDelete() output = %q", out.String())
	}
	if got := s.Vault.ListAccounts(); !reflect.DeepEqual(got, want) {
		t.Errorf("accounts after failed delete = %+v, want %+v", got, want)
	}

	if err := DeleteEntry(s, 7); !errors.Is(err, errNoEntry) {
		t.Errorf("DeleteEntry() of a missing entry error = %v", err)
	}
}

func TestDeleteEntry(t *testing.T) {
	s := newTestSession(t, 0)
	_ = s.Vault.AddAccount("a.com", "u1", "p1")
	_ = s.Vault.AddAccount("b.com", "u2", "p2")

	if err := DeleteEntry(s, 0); err != nil {
		t.Fatalf("DeleteEntry() error = %v", err)
	}
	reloaded := newTestSession(t, 0)
	reloaded.Path = s.Path
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := reloaded.Vault.ListAccounts(); len(got) != 1 || got[0].Site != "b.com" {
		t.Errorf("vault file after delete = %+v", got)
	}
}

func TestAddEntry_WipesPassword(t *testing.T) {
	s := newTestSession(t, 0)
	pw := []byte("p1")
	if err := AddEntry(s, "a.com", "u1", pw); err != nil {
		t.Fatalf("AddEntry() error = %v", err)
	}
	if !bytes.Equal(pw, []byte{0, 0}) {
		t.Errorf("password buffer = %q after AddEntry", pw)
	}
	r, _ := s.Vault.Store().Get(0)
	if r.Password != "p1" {
		t.Errorf("stored password = %q", r.Password)
	}
}

func TestSession_Open(t *testing.T) {
	s := newTestSession(t, 0)
	if err := s.Open(); err != nil {
		t.Fatalf("Open() without a file error = %v", err)
	}
	_ = s.Vault.AddAccount("a.com", "u1", "p1")
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}

	wrong := newTestSession(t, 0)
	wrong.Path = s.Path
	wrong.key = bytes.Repeat([]byte{0x02}, vault.KeyLen)
	if err := wrong.Open(); !errors.Is(err, vault.ErrAuthFailed) {
		t.Errorf("Open() with wrong key error = %v", err)
	}

	s.Close()
	if !bytes.Equal(s.key, make([]byte, vault.KeyLen)) {
		t.Error("Close() did not wipe the key")
	}
}

func TestSession_CopyPasswordClears(t *testing.T) {
	fc := stubClipboard(t)
	s := newTestSession(t, 10*time.Millisecond)
	_ = s.Vault.AddAccount("a.com", "u1", "p1")

	timer, err := s.CopyPassword(0)
	if err != nil {
		t.Fatalf("CopyPassword() error = %v", err)
	}
	if timer == nil {
		t.Fatal("CopyPassword() returned no timer")
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(fc.snapshot()) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if w := fc.snapshot(); len(w) != 2 || w[0] != "p1" || w[1] != "" {
		t.Errorf("clipboard writes = %q, want [p1 \"\"]", w)
	}

	if _, err := s.CopyPassword(3); err == nil {
		t.Error("CopyPassword() of a missing entry should fail")
	}
}
