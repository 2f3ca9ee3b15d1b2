// Package file persists the sync state as a JSON document with a
// last-known-good backup. Saves go through a temp file and two atomic
// renames, so at any observation point the primary is either the old
// complete document or the new one, never a torn write.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/custodia-labs/jbsync/internal/core/domain"
	"github.com/custodia-labs/jbsync/internal/core/ports/driven"
	"github.com/custodia-labs/jbsync/internal/logger"
)

// Ensure StateStore implements the interface.
var _ driven.StateStore = (*StateStore)(nil)

// backupSuffix marks the previous-generation copy.
const backupSuffix = ".bak"

// StateStore is a file-based implementation of driven.StateStore.
type StateStore struct {
	path   string
	backup string
}

// NewStateStore creates a store persisting to path, with the backup
// beside it at path + ".bak".
func NewStateStore(path string) *StateStore {
	return &StateStore{
		path:   path,
		backup: path + backupSuffix,
	}
}

// Files returns the primary and backup paths, in staging order.
func (s *StateStore) Files() []string {
	return []string{s.path, s.backup}
}

// Load reads the persisted state. The primary document is preferred;
// when it is missing or unparseable the backup is tried; when both
// fail an empty state is returned so a fresh checkout starts clean.
func (s *StateStore) Load(_ context.Context) (*domain.SyncState, error) {
	state, err := read(s.path)
	if err == nil {
		return state, nil
	}
	if !os.IsNotExist(err) {
		logger.Warn("Primary state file unreadable (%v), trying backup", err)
	}

	state, berr := read(s.backup)
	if berr == nil {
		return state, nil
	}
	if !os.IsNotExist(berr) {
		logger.Warn("Backup state file unreadable: %v", berr)
	}

	return domain.NewSyncState(), nil
}

// Save atomically replaces the persisted state: write a temp file,
// rotate the current primary into the backup slot, rename the temp
// into place.
func (s *StateStore) Save(_ context.Context, state *domain.SyncState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := fmt.Sprintf("%s.%s.tmp", s.path, uuid.NewString())
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp state: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		if err := os.Rename(s.path, s.backup); err != nil {
			os.Remove(tmp)
			return fmt.Errorf("rotate backup: %w", err)
		}
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace state file: %w", err)
	}

	logger.Info("Sync state saved: %s", s.path)
	return nil
}

func read(path string) (*domain.SyncState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var state domain.SyncState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if state.Products == nil {
		state.Products = make(map[string]domain.SyncRecord)
	}
	return &state, nil
}
