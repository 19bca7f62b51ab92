package api

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrJobNotFound is returned for ids that are malformed or unknown.
var ErrJobNotFound = errors.New("job not found")

// JobStore keeps one directory per recognition job under a root directory.
type JobStore struct {
	root string
}

// NewJobStore creates root if needed.
func NewJobStore(root string) (*JobStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create job root %s: %w", root, err)
	}
	return &JobStore{root: root}, nil
}

// Create makes a directory for a new job and returns its id and path.
func (s *JobStore) Create() (string, string, error) {
	id := uuid.NewString()
	dir := filepath.Join(s.root, id)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create job %s: %w", id, err)
	}
	return id, dir, nil
}

// Lookup returns the directory of an existing job. Only canonical UUIDs are
// accepted, so an id can never name a path outside the root.
func (s *JobStore) Lookup(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil || u.String() != id {
		return "", ErrJobNotFound
	}
	dir := filepath.Join(s.root, id)
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		return "", ErrJobNotFound
	}
	return dir, nil
}

// Remove deletes a job and everything in it.
func (s *JobStore) Remove(id string) error {
	dir, err := s.Lookup(id)
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}
