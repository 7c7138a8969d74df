package filter

import (
	"errors"
	"fmt"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

var (
	// ErrInvalidType is returned for predicate types the backend does not store
	ErrInvalidType = errors.New("invalid predicate type")
	// ErrUnknownField is returned for fields that are not columns of the active table
	ErrUnknownField = errors.New("unknown field")
)

// Store is the active filter set of one table session.
// It holds at most one predicate per (field, type) pair.
type Store struct {
	predicates []models.Predicate
	fields     map[string]struct{}
}

// NewStore creates an empty filter store
func NewStore() *Store {
	return &Store{}
}

// SetFields sets the known columns of the active table.
// An empty list disables field validation.
func (s *Store) SetFields(fields []string) {
	if len(fields) == 0 {
		s.fields = nil
		return
	}
	s.fields = make(map[string]struct{}, len(fields))
	for _, f := range fields {
		s.fields[f] = struct{}{}
	}
}

func (s *Store) validate(p models.Predicate) error {
	if !p.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, p.Type)
	}
	if s.fields != nil {
		if _, ok := s.fields[p.Field]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownField, p.Field)
		}
	}
	return nil
}

// Apply replaces the value of an existing (field, type) predicate in place,
// or appends p when no such predicate exists
func (s *Store) Apply(p models.Predicate) error {
	if err := s.validate(p); err != nil {
		return err
	}

	for i, existing := range s.predicates {
		if existing.Field == p.Field && existing.Type == p.Type {
			s.predicates[i].Value = p.Value
			return nil
		}
	}
	s.predicates = append(s.predicates, p)
	return nil
}

// Merge applies every predicate in order. Invalid predicates are skipped and
// their errors joined; valid ones are still applied.
func (s *Store) Merge(ps []models.Predicate) error {
	var errs []error
	for _, p := range ps {
		if err := s.Apply(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Remove drops the predicate at index i. Out of range is a no-op.
func (s *Store) Remove(i int) bool {
	if i < 0 || i >= len(s.predicates) {
		return false
	}
	s.predicates = append(s.predicates[:i], s.predicates[i+1:]...)
	return true
}

// ReplaceAll swaps the whole set. Nothing changes if any predicate is invalid.
func (s *Store) ReplaceAll(ps []models.Predicate) error {
	next := NewStore()
	next.fields = s.fields
	for _, p := range ps {
		if err := next.Apply(p); err != nil {
			return err
		}
	}
	s.predicates = next.predicates
	return nil
}

// Clear empties the set
func (s *Store) Clear() {
	s.predicates = nil
}

// Len returns the number of active predicates
func (s *Store) Len() int {
	return len(s.predicates)
}

// List returns a copy of the active predicates, never nil
func (s *Store) List() []models.Predicate {
	out := make([]models.Predicate, len(s.predicates))
	copy(out, s.predicates)
	return out
}
