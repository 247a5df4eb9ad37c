package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fyrsmithlabs/ledgerd/internal/record"
)

// FileBackend keeps the ledger document as a JSON snapshot on local disk.
// It is the safety net when the remote store is unreachable and the only
// store in local-only mode.
type FileBackend struct {
	path string
}

// NewFileBackend creates a file-backed document store at path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Load reads and decodes the snapshot file.
func (b *FileBackend) Load(_ context.Context) (map[string]*record.Account, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read local snapshot %s: %w", b.path, err)
	}

	accounts := make(map[string]*record.Account)
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("malformed local snapshot %s: %w", b.path, err)
	}
	return accounts, nil
}

// Save writes the snapshot atomically: temp file in the same directory,
// then rename over the target.
func (b *FileBackend) Save(_ context.Context, accounts map[string]*record.Account) error {
	data, err := json.MarshalIndent(accounts, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger document: %w", err)
	}

	dir := filepath.Dir(b.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(b.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to set snapshot permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}

	if err := os.Rename(tmpName, b.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot %s: %w", b.path, err)
	}
	return nil
}
