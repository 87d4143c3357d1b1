package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/theapemachine/bucketreaper/logger"
)

// ErrNoRecords is returned by Latest when nothing has been journaled yet.
var ErrNoRecords = errors.New("no run records found")

/*
FileJournal implements Journal on the local filesystem, one JSON file per
run named after the run ID.
*/
type FileJournal struct {
	basePath string
	mu       sync.RWMutex
}

/*
NewFileJournal creates a journal rooted at basePath, creating the directory
if it does not exist.
*/
func NewFileJournal(basePath string) (*FileJournal, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	return &FileJournal{basePath: basePath}, nil
}

/*
Save writes record to <basePath>/<id>.json.
*/
func (fj *FileJournal) Save(ctx context.Context, record *Record) error {
	fj.mu.Lock()
	defer fj.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	if err := os.WriteFile(fj.path(record.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write run record: %w", err)
	}

	logger.Info("Saved run record",
		"id", record.ID,
		"deleted", len(record.Deleted),
		"failed", len(record.Failed),
		"halted", record.Halted != "")

	return nil
}

/*
Get reads the record of run id.
*/
func (fj *FileJournal) Get(ctx context.Context, id string) (*Record, error) {
	fj.mu.RLock()
	defer fj.mu.RUnlock()

	record, err := readRecord(fj.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("run record not found: %s", id)
	}

	return record, err
}

/*
List reads every record in the journal, newest first. Files that cannot be
read or parsed are skipped.
*/
func (fj *FileJournal) List(ctx context.Context) ([]*Record, error) {
	fj.mu.RLock()
	defer fj.mu.RUnlock()

	entries, err := os.ReadDir(fj.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal directory: %w", err)
	}

	records := []*Record{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		record, err := readRecord(filepath.Join(fj.basePath, entry.Name()))
		if err != nil {
			logger.Debug("Skipping unreadable run record", "file", entry.Name(), "error", err)
			continue
		}

		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})

	return records, nil
}

/*
Latest returns the most recent record, or ErrNoRecords.
*/
func (fj *FileJournal) Latest(ctx context.Context) (*Record, error) {
	records, err := fj.List(ctx)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	return records[0], nil
}

func (fj *FileJournal) path(id string) string {
	return filepath.Join(fj.basePath, id+".json")
}

func readRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run record: %w", err)
	}

	return &record, nil
}
