package record

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountUnmarshal_SplitsCoreAndExtensions(t *testing.T) {
	data := []byte(`{
		"money": 150,
		"xp": 42,
		"lang": "ja",
		"joined_at": "2024-03-01",
		"last_active": "2024-03-05 18:30",
		"inventory": {"rod": 2, "bait": ["worm", "shrimp"]}
	}`)

	var a Account
	require.NoError(t, json.Unmarshal(data, &a))

	assert.Equal(t, int64(150), a.Balance)
	assert.Equal(t, int64(42), a.Experience)
	assert.Equal(t, 2024, a.JoinedAt.Year())
	assert.Equal(t, 18, a.LastActivityAt.Hour())

	require.Contains(t, a.Extensions, "lang")
	require.Contains(t, a.Extensions, "inventory")
	assert.NotContains(t, a.Extensions, "money")
	assert.NotContains(t, a.Extensions, "xp")
}

func TestAccountRoundTrip_PreservesExtensionsVerbatim(t *testing.T) {
	in := []byte(`{"money":100,"xp":0,"lang":"ja","session":{"flags":[1,2,3],"note":"漢字"}}`)

	var a Account
	require.NoError(t, json.Unmarshal(in, &a))

	out, err := json.Marshal(&a)
	require.NoError(t, err)

	var b Account
	require.NoError(t, json.Unmarshal(out, &b))

	assert.Equal(t, a.Balance, b.Balance)
	assert.Equal(t, a.Experience, b.Experience)
	assert.JSONEq(t, string(a.Extensions["session"]), string(b.Extensions["session"]))
	assert.JSONEq(t, `"ja"`, string(b.Extensions["lang"]))
}

func TestAccountUnmarshal_LegacyTimestampShapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantSet bool
	}{
		{"rfc3339", `{"last_active": "2024-03-05T18:30:00Z"}`, true},
		{"minute precision", `{"last_active": "2024-03-05 18:30"}`, true},
		{"date only", `{"last_active": "2024-03-05"}`, true},
		{"never active marker", `{"last_active": "N/A"}`, false},
		{"not a string", `{"last_active": 12345}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Account
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &a))
			assert.Equal(t, tt.wantSet, !a.LastActivityAt.IsZero())
		})
	}
}

func TestAccountMarshal_WritesRFC3339(t *testing.T) {
	a := Account{
		Balance:        100,
		LastActivityAt: time.Date(2024, 3, 5, 18, 30, 0, 0, time.UTC),
	}

	out, err := json.Marshal(&a)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"2024-03-05T18:30:00Z"`)
}

func TestAccountClone_Independent(t *testing.T) {
	a := &Account{
		Balance:    100,
		Experience: 5,
		Extensions: map[string]json.RawMessage{"lang": json.RawMessage(`"ja"`)},
	}

	c := a.Clone()
	c.Balance = 999
	c.Extensions["lang"] = json.RawMessage(`"en"`)

	assert.Equal(t, int64(100), a.Balance)
	assert.JSONEq(t, `"ja"`, string(a.Extensions["lang"]))
}
