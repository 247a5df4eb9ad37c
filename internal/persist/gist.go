package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/fyrsmithlabs/ledgerd/internal/config"
	"github.com/fyrsmithlabs/ledgerd/internal/record"
)

// GistBackend stores the ledger document as one file inside a GitHub gist.
// Every remote call runs under a bounded timeout.
type GistBackend struct {
	gists    gistClient
	gistID   string
	filename string
	timeout  time.Duration
}

// gistClient is the slice of go-github's GistsService the backend uses.
type gistClient interface {
	Get(ctx context.Context, id string) (*github.Gist, *github.Response, error)
	Edit(ctx context.Context, id string, gist *github.Gist) (*github.Gist, *github.Response, error)
}

// NewGistBackend creates a gist-backed document store with proper
// authentication. Returns ErrRemoteDisabled when the token or gist ID is
// missing.
func NewGistBackend(cfg config.PersistConfig) (*GistBackend, error) {
	if cfg.GistID == "" || !cfg.GitHubToken.IsSet() {
		return nil, ErrRemoteDisabled
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.GitHubToken.Value()})
	tc := oauth2.NewClient(context.Background(), ts)

	return &GistBackend{
		gists:    github.NewClient(tc).Gists,
		gistID:   cfg.GistID,
		filename: cfg.Filename,
		timeout:  cfg.RemoteTimeout.Duration(),
	}, nil
}

// Load fetches the gist and decodes the configured file.
func (b *GistBackend) Load(ctx context.Context) (map[string]*record.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	gist, _, err := b.gists.Get(ctx, b.gistID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch gist %s: %w", b.gistID, err)
	}

	file, ok := gist.Files[github.GistFilename(b.filename)]
	if !ok || file.Content == nil {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, b.filename)
	}
	accounts := make(map[string]*record.Account)
	if err := json.Unmarshal([]byte(file.GetContent()), &accounts); err != nil {
		return nil, fmt.Errorf("malformed remote document: %w", err)
	}
	return accounts, nil
}

// Save replaces the gist file wholesale. Last writer wins; there is no
// version check against concurrent remote edits.
func (b *GistBackend) Save(ctx context.Context, accounts map[string]*record.Account) error {
	data, err := json.MarshalIndent(accounts, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger document: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	_, _, err = b.gists.Edit(ctx, b.gistID, &github.Gist{
		Files: map[github.GistFilename]github.GistFile{
			github.GistFilename(b.filename): {Content: github.String(string(data))},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to update gist %s: %w", b.gistID, err)
	}
	return nil
}
