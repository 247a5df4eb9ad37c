package persist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/ledgerd/internal/config"
	"github.com/fyrsmithlabs/ledgerd/internal/record"
)

// fakeGists is a scriptable gistClient.
type fakeGists struct {
	gist    *github.Gist
	getErr  error
	editErr error
	edited  *github.Gist
}

func (f *fakeGists) Get(context.Context, string) (*github.Gist, *github.Response, error) {
	return f.gist, nil, f.getErr
}

func (f *fakeGists) Edit(_ context.Context, _ string, gist *github.Gist) (*github.Gist, *github.Response, error) {
	f.edited = gist
	return gist, nil, f.editErr
}

func testGistBackend(gists gistClient) *GistBackend {
	return &GistBackend{
		gists:    gists,
		gistID:   "abc123",
		filename: "ledger.json",
		timeout:  time.Second,
	}
}

func gistWithContent(name, content string) *github.Gist {
	return &github.Gist{
		Files: map[github.GistFilename]github.GistFile{
			github.GistFilename(name): {Content: github.String(content)},
		},
	}
}

func TestNewGistBackend_RequiresCredentials(t *testing.T) {
	_, err := NewGistBackend(config.PersistConfig{Filename: "ledger.json"})
	require.ErrorIs(t, err, ErrRemoteDisabled)

	_, err = NewGistBackend(config.PersistConfig{GistID: "abc", Filename: "ledger.json"})
	require.ErrorIs(t, err, ErrRemoteDisabled)
}

func TestGistBackendLoad(t *testing.T) {
	b := testGistBackend(&fakeGists{
		gist: gistWithContent("ledger.json", `{"42": {"money": 150, "xp": 7, "lang": "ja"}}`),
	})

	accounts, err := b.Load(context.Background())
	require.NoError(t, err)
	require.Contains(t, accounts, "42")
	assert.Equal(t, int64(150), accounts["42"].Balance)
	assert.JSONEq(t, `"ja"`, string(accounts["42"].Extensions["lang"]))
}

func TestGistBackendLoad_MissingFile(t *testing.T) {
	b := testGistBackend(&fakeGists{
		gist: gistWithContent("other.json", `{}`),
	})

	_, err := b.Load(context.Background())
	require.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestGistBackendLoad_FetchError(t *testing.T) {
	b := testGistBackend(&fakeGists{getErr: errors.New("api error")})

	_, err := b.Load(context.Background())
	require.Error(t, err)
}

func TestGistBackendLoad_MalformedContent(t *testing.T) {
	b := testGistBackend(&fakeGists{
		gist: gistWithContent("ledger.json", "{not json"),
	})

	_, err := b.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}

func TestGistBackendSave_ReplacesDocumentWholesale(t *testing.T) {
	gists := &fakeGists{}
	b := testGistBackend(gists)

	accounts := map[string]*record.Account{"42": {Balance: 100, Experience: 2}}
	require.NoError(t, b.Save(context.Background(), accounts))

	require.NotNil(t, gists.edited)
	file, ok := gists.edited.Files["ledger.json"]
	require.True(t, ok)
	assert.Contains(t, file.GetContent(), `"money": 100`)
	assert.Contains(t, file.GetContent(), `"xp": 2`)
}
