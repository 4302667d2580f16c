package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// stateFile persists the tail cursor as {"after_id": N}. An empty path
// disables persistence.
type stateFile struct {
	path string
}

type tailState struct {
	AfterID int64 `json:"after_id"`
}

func newStateFile(path string) stateFile {
	return stateFile{path: path}
}

func (s stateFile) Load() (int64, error) {
	if s.path == "" {
		return 0, nil
	}
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read state: %w", err)
	}
	var st tailState
	if err := json.Unmarshal(raw, &st); err != nil {
		return 0, fmt.Errorf("parse state %s: %w", s.path, err)
	}
	return st.AfterID, nil
}

// Save replaces the state file atomically.
func (s stateFile) Save(afterID int64) error {
	if s.path == "" {
		return nil
	}
	raw, err := json.Marshal(tailState{AfterID: afterID})
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".tail-state-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
