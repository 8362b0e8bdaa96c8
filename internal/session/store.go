// Package session owns the durable client session: the token and identity of
// the signed-in user, persisted across runs, and the guard that gates every
// authenticated view on it.
package session

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gestor-eventos/eventctl/internal/models"
)

// Store persists the session as a YAML file. It performs no network or
// validation work; it only reads and writes the file it was given.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Save writes the session to disk, replacing any previous one. The write is
// atomic so a crash never leaves a partial session behind.
func (s *Store) Save(sess models.Session) error {
	data, err := yaml.Marshal(sess)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Current returns the persisted session. The second return value is false
// when no session exists or when any field is missing: a partial session is
// never handed out.
func (s *Store) Current() (models.Session, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return models.Session{}, false
	}

	var sess models.Session
	if err := yaml.Unmarshal(data, &sess); err != nil {
		return models.Session{}, false
	}

	if !sess.Complete() {
		return models.Session{}, false
	}
	return sess, true
}

// Clear removes the persisted session. A missing file is not an error.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
