package persist

import (
	"context"
	"errors"

	"github.com/fyrsmithlabs/ledgerd/internal/record"
)

// Backend loads and saves the full account mapping as one document.
type Backend interface {
	// Load fetches and decodes the document.
	Load(ctx context.Context) (map[string]*record.Account, error)

	// Save encodes and writes the document wholesale.
	Save(ctx context.Context, accounts map[string]*record.Account) error
}

var (
	// ErrRemoteDisabled reports that no gist credentials are configured.
	ErrRemoteDisabled = errors.New("remote sync is not configured")

	// ErrDocumentNotFound reports that the gist does not contain the
	// configured document file.
	ErrDocumentNotFound = errors.New("document not found in gist")
)
