package model

import "salesassist/api"

// Store holds the active conversation id. The zero id means no conversation
// is selected and the welcome view is shown.
type Store struct {
	current api.ID
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Current() api.ID { return s.current }

func (s *Store) Has() bool { return !s.current.IsZero() }

func (s *Store) IsCurrent(id api.ID) bool {
	return !id.IsZero() && s.current == id
}

func (s *Store) Set(id api.ID) { s.current = id }

func (s *Store) Clear() { s.current = "" }
