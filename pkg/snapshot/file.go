package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"oneramp-rates/pkg/types"
)

const (
	DefaultStorageFileName = ".oneramp-rates-snapshots.json"
)

// FileStore persists snapshots to a JSON file
type FileStore struct {
	filePath     string
	mu           sync.RWMutex
	data         fileData
	ttl          time.Duration
	historyLimit int
	now          func() time.Time
}

// fileData represents the JSON structure on disk
type fileData struct {
	Latest  map[string]fileEntry               `json:"latest"`
	History map[string][]types.SnapshotRecord `json:"history"`
}

type fileEntry struct {
	Snapshot types.ExchangeRateSnapshot `json:"snapshot"`
	StoredAt time.Time                  `json:"stored_at"`
}

// NewFileStore opens or creates a file store
func NewFileStore(filePath string, ttl time.Duration, historyLimit int) (*FileStore, error) {
	if filePath == "" {
		// Default to home directory
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		filePath = filepath.Join(home, DefaultStorageFileName)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}

	store := &FileStore{
		filePath:     filePath,
		data:         emptyFileData(),
		ttl:          ttl,
		historyLimit: historyLimit,
		now:          time.Now,
	}

	// A missing file is created on first save
	if err := store.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}

	return store, nil
}

func emptyFileData() fileData {
	return fileData{
		Latest:  make(map[string]fileEntry),
		History: make(map[string][]types.SnapshotRecord),
	}
}

// load reads snapshots from the storage file
func (s *FileStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	data := emptyFileData()
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("failed to unmarshal snapshots: %w", err)
	}
	if data.Latest == nil {
		data.Latest = make(map[string]fileEntry)
	}
	if data.History == nil {
		data.History = make(map[string][]types.SnapshotRecord)
	}

	s.data = data
	return nil
}

// saveLocked writes data to disk; the caller holds s.mu
func (s *FileStore) saveLocked(data fileData) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshots: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to temporary file first, then rename for atomic write
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, raw, 0600); err != nil {
		return fmt.Errorf("failed to write snapshots: %w", err)
	}

	if err := os.Rename(tempFile, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Get returns the latest snapshot for pair if it is younger than the TTL
func (s *FileStore) Get(_ context.Context, pair string) (*types.ExchangeRateSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.data.Latest[pair]
	if !exists || s.now().After(entry.StoredAt.Add(s.ttl)) {
		return nil, nil
	}

	snap := entry.Snapshot
	return &snap, nil
}

// Put records snap and flushes the file. Memory is only updated once the
// file has been written.
func (s *FileStore) Put(_ context.Context, pair string, snap types.ExchangeRateSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := emptyFileData()
	for k, v := range s.data.Latest {
		next.Latest[k] = v
	}
	for k, v := range s.data.History {
		next.History[k] = v
	}

	next.Latest[pair] = fileEntry{Snapshot: snap, StoredAt: s.now()}

	old := s.data.History[pair]
	h := make([]types.SnapshotRecord, 0, len(old)+1)
	h = append(h, old...)
	h = append(h, newRecord(pair, snap))
	if len(h) > s.historyLimit {
		h = h[len(h)-s.historyLimit:]
	}
	next.History[pair] = h

	if err := s.saveLocked(next); err != nil {
		return err
	}
	s.data = next
	return nil
}

// History returns up to limit records, newest first
func (s *FileStore) History(_ context.Context, pair string, limit int) ([]types.SnapshotRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h := s.data.History[pair]
	n := clampLimit(limit, len(h))
	out := make([]types.SnapshotRecord, 0, n)
	for i := len(h) - 1; i >= len(h)-n; i-- {
		out = append(out, h[i])
	}
	return out, nil
}

// GetFilePath returns the storage file path
func (s *FileStore) GetFilePath() string {
	return s.filePath
}
