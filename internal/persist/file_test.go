package persist

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/ledgerd/internal/record"
)

func TestFileBackend_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	b := NewFileBackend(path)
	ctx := context.Background()

	accounts := map[string]*record.Account{
		"42": {
			Balance:    150,
			Experience: 7,
			Extensions: map[string]json.RawMessage{"lang": json.RawMessage(`"ja"`)},
		},
	}
	require.NoError(t, b.Save(ctx, accounts))

	loaded, err := b.Load(ctx)
	require.NoError(t, err)
	require.Contains(t, loaded, "42")
	assert.Equal(t, int64(150), loaded["42"].Balance)
	assert.Equal(t, int64(7), loaded["42"].Experience)
	assert.JSONEq(t, `"ja"`, string(loaded["42"].Extensions["lang"]))
}

func TestFileBackend_LoadMissingFile(t *testing.T) {
	b := NewFileBackend(filepath.Join(t.TempDir(), "absent.json"))

	_, err := b.Load(context.Background())
	require.Error(t, err)
}

func TestFileBackend_LoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileBackend(path).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}

func TestFileBackend_SaveReplacesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	b := NewFileBackend(path)
	ctx := context.Background()

	require.NoError(t, b.Save(ctx, map[string]*record.Account{"a": {Balance: 1}}))
	require.NoError(t, b.Save(ctx, map[string]*record.Account{"a": {Balance: 2}}))

	loaded, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), loaded["a"].Balance)

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
