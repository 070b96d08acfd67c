package withdrawal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultHistoryFileName = ".ping-onramp-history.json"
)

// Record is one persisted withdrawal: the request, the stages it passed
// through and its terminal outcome. Records are the audit trail behind the
// support path for post-deposit failures.
type Record struct {
	ID      string  `json:"id"`
	Request Request `json:"request"`

	Stages      []string `json:"stages"`
	IntentHash  string   `json:"intent_hash,omitempty"`
	AmountOut   string   `json:"amount_out,omitempty"`
	ExplorerURL string   `json:"explorer_url,omitempty"`
	Error       string   `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// History handles persistence of withdrawal records
type History struct {
	filePath string
	mu       sync.RWMutex
	records  map[string]*Record
}

// historyFile represents the JSON structure for storage
type historyFile struct {
	Records map[string]*Record `json:"records"`
}

// NewHistory creates a new history store instance
func NewHistory(filePath string) (*History, error) {
	if filePath == "" {
		// Default to home directory
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		filePath = filepath.Join(home, DefaultHistoryFileName)
	}

	history := &History{
		filePath: filePath,
		records:  make(map[string]*Record),
	}

	// Load existing records if file exists
	if err := history.load(); err != nil {
		// If file doesn't exist, that's okay - we'll create it on first save
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load history: %w", err)
		}
	}

	return history, nil
}

// load reads records from the storage file
func (h *History) load() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	data, err := os.ReadFile(h.filePath)
	if err != nil {
		return err
	}

	var file historyFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to unmarshal history: %w", err)
	}

	h.records = file.Records
	if h.records == nil {
		h.records = make(map[string]*Record)
	}

	return nil
}

// saveLocked writes records to the storage file. Caller holds the lock.
func (h *History) saveLocked() error {
	data, err := json.MarshalIndent(historyFile{Records: h.records}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(h.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to temporary file first, then rename for atomic write
	tempFile := h.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}

	if err := os.Rename(tempFile, h.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Begin creates and persists a new record for a request.
func (h *History) Begin(req Request) (*Record, error) {
	now := time.Now().UTC()
	record := &Record{
		ID:        uuid.New().String(),
		Request:   req,
		CreatedAt: now,
		UpdatedAt: now,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.records[record.ID] = record
	if err := h.saveLocked(); err != nil {
		return nil, err
	}
	return record, nil
}

// Update persists the current state of a record.
func (h *History) Update(record *Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.records[record.ID]; !exists {
		return fmt.Errorf("record '%s' not found", record.ID)
	}

	record.UpdatedAt = time.Now().UTC()
	h.records[record.ID] = record

	return h.saveLocked()
}

// Get retrieves a record by id
func (h *History) Get(id string) (*Record, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	record, exists := h.records[id]
	if !exists {
		return nil, fmt.Errorf("record '%s' not found", id)
	}

	return record, nil
}

// List returns all records, newest first.
func (h *History) List() []*Record {
	h.mu.RLock()
	defer h.mu.RUnlock()

	records := make([]*Record, 0, len(h.records))
	for _, record := range h.records {
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	return records
}

// Count returns the total number of records
func (h *History) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.records)
}
