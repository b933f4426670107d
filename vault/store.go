package vault

import (
	"fmt"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Store is an ordered, capacity-bounded set of records. It is safe for
// concurrent use.
type Store struct {
	mu       sync.RWMutex
	records  []Record
	capacity int
	limits   Limits
}

func NewStore(capacity int, limits Limits) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{capacity: capacity, limits: limits}
}

func (s *Store) Capacity() int { return s.capacity }

func (s *Store) Limits() Limits { return s.limits }

// Add appends a record. On error the store is left untouched.
func (s *Store) Add(site, username, password string) error {
	r := Record{Site: site, Username: username, Password: password}
	if err := s.limits.validate("add", r); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) >= s.capacity {
		return newError("add", CapacityExceeded, fmt.Sprintf("store holds %d records", s.capacity))
	}
	s.records = append(s.records, r)
	return nil
}

// List returns a copy of the records in insertion order.
func (s *Store) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Get returns the record at position i.
func (s *Store) Get(i int) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.records) {
		return Record{}, false
	}
	return s.records[i], true
}

// Find returns the position of the first record for site, or -1.
func (s *Store) Find(site string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, r := range s.records {
		if r.Site == site {
			return i
		}
	}
	return -1
}

// Delete removes the record at position i, keeping the order of the rest.
func (s *Store) Delete(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.records) {
		return false
	}
	s.records = append(s.records[:i:i], s.records[i+1:]...)
	return true
}

// Insert puts r at position i, shifting later records down. i may equal
// Len. On error the store is left untouched.
func (s *Store) Insert(i int, r Record) error {
	if err := s.limits.validate("insert", r); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) >= s.capacity {
		return newError("insert", CapacityExceeded, fmt.Sprintf("store holds %d records", s.capacity))
	}
	if i < 0 || i > len(s.records) {
		return errors.Errorf("vault: insert: position %d out of range [0, %d]", i, len(s.records))
	}
	s.records = append(s.records, Record{})
	copy(s.records[i+1:], s.records[i:])
	s.records[i] = r
	return nil
}

// ReplaceAll swaps the whole collection. Every record is validated first;
// on error nothing changes.
func (s *Store) ReplaceAll(records []Record) error {
	if len(records) > s.capacity {
		return newError("replace", CapacityExceeded,
			fmt.Sprintf("%d records exceed capacity %d", len(records), s.capacity))
	}
	next := make([]Record, len(records))
	for i, r := range records {
		if err := s.limits.validate("replace", r); err != nil {
			return err
		}
		next[i] = r
	}

	s.mu.Lock()
	s.records = next
	s.mu.Unlock()
	return nil
}

func (l Limits) validate(op string, r Record) error {
	fields := [...]struct {
		name  string
		value string
		max   int
	}{
		{"site", r.Site, l.Site},
		{"username", r.Username, l.Username},
		{"password", r.Password, l.Password},
	}
	for _, f := range fields {
		if len(f.value) > f.max {
			return newError(op, FieldTooLong, fmt.Sprintf("%s exceeds %d bytes", f.name, f.max))
		}
		if !validField(f.value) {
			return newError(op, InvalidField, f.name+" contains a reserved or control character")
		}
	}
	return nil
}

// validField rejects the delimiter, NUL and any other control character.
func validField(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if r == Delimiter || unicode.IsControl(r) {
			return false
		}
	}
	return true
}
