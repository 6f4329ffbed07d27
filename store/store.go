// Package store holds the comparison set: package records keyed by name.
//
// A Store is an immutable value. With and Without return a new Store and
// never modify the receiver, so a snapshot handed to a view stays valid while
// the session moves on.
package store

import (
	"sort"

	"github.com/git-pkgs/compare/internal/core"
)

// Store maps package names to records. The zero value is an empty store.
type Store struct {
	records map[string]core.PackageRecord
}

// New returns an empty store.
func New() Store {
	return Store{}
}

// With returns a store that also contains rec. If a record with the same
// name is already present the receiver is returned unchanged together with
// a *core.DuplicateError.
func (s Store) With(rec core.PackageRecord) (Store, error) {
	if rec.Name == "" {
		return s, core.ErrInvalidName
	}
	if s.Has(rec.Name) {
		return s, &core.DuplicateError{Name: rec.Name}
	}

	next := make(map[string]core.PackageRecord, len(s.records)+1)
	for k, v := range s.records {
		next[k] = v
	}
	next[rec.Name] = rec.Clone()
	return Store{records: next}, nil
}

// Without returns a store lacking name. Removing an absent name returns the
// receiver.
func (s Store) Without(name string) Store {
	if !s.Has(name) {
		return s
	}

	next := make(map[string]core.PackageRecord, len(s.records)-1)
	for k, v := range s.records {
		if k != name {
			next[k] = v
		}
	}
	return Store{records: next}
}

// Count returns the number of records.
func (s Store) Count() int {
	return len(s.records)
}

// Has reports whether name is present.
func (s Store) Has(name string) bool {
	_, ok := s.records[name]
	return ok
}

// Get returns a copy of the record for name.
func (s Store) Get(name string) (core.PackageRecord, bool) {
	rec, ok := s.records[name]
	if !ok {
		return core.PackageRecord{}, false
	}
	return rec.Clone(), true
}

// Names returns the package names in sorted order.
func (s Store) Names() []string {
	names := make([]string, 0, len(s.records))
	for name := range s.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Records returns copies of all records, sorted by name.
func (s Store) Records() []core.PackageRecord {
	names := s.Names()
	recs := make([]core.PackageRecord, len(names))
	for i, name := range names {
		recs[i] = s.records[name].Clone()
	}
	return recs
}
