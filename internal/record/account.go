package record

import (
	"encoding/json"
	"fmt"
	"time"
)

// JSON keys the core interprets. Everything else is carried in Extensions.
const (
	keyBalance        = "money"
	keyExperience     = "xp"
	keyJoinedAt       = "joined_at"
	keyLastActivityAt = "last_active"
)

// Legacy documents store timestamps in several shapes; parse leniently,
// always write RFC3339 back.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
}

// Account is one identity's ledger entry.
type Account struct {
	// Balance is spendable credits. Never negative.
	Balance int64

	// Experience is the accrued, non-transferable contribution score.
	// Never negative.
	Experience int64

	// JoinedAt is set once, when the account is first created.
	JoinedAt time.Time

	// LastActivityAt updates whenever experience accrues. Zero until then.
	LastActivityAt time.Time

	// Extensions holds fields owned by non-core features (inventory,
	// language preference, session flags). The core preserves them verbatim
	// and never interprets them.
	Extensions map[string]json.RawMessage
}

// Clone returns an independent copy. Extension values are shared byte
// slices; the core treats them as immutable.
func (a *Account) Clone() *Account {
	c := *a
	if a.Extensions != nil {
		c.Extensions = make(map[string]json.RawMessage, len(a.Extensions))
		for k, v := range a.Extensions {
			c.Extensions[k] = v
		}
	}
	return &c
}

// MarshalJSON flattens core fields and extensions into one object.
func (a *Account) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(a.Extensions)+4)
	for k, v := range a.Extensions {
		out[k] = v
	}

	var err error
	if out[keyBalance], err = json.Marshal(a.Balance); err != nil {
		return nil, err
	}
	if out[keyExperience], err = json.Marshal(a.Experience); err != nil {
		return nil, err
	}
	if !a.JoinedAt.IsZero() {
		if out[keyJoinedAt], err = json.Marshal(a.JoinedAt.Format(time.RFC3339)); err != nil {
			return nil, err
		}
	}
	if !a.LastActivityAt.IsZero() {
		if out[keyLastActivityAt], err = json.Marshal(a.LastActivityAt.Format(time.RFC3339)); err != nil {
			return nil, err
		}
	}

	return json.Marshal(out)
}

// UnmarshalJSON splits recognized keys into typed fields and keeps the rest
// in Extensions untouched.
func (a *Account) UnmarshalJSON(data []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("account is not a JSON object: %w", err)
	}

	if v, ok := raw[keyBalance]; ok {
		if err := json.Unmarshal(v, &a.Balance); err != nil {
			return fmt.Errorf("invalid %s field: %w", keyBalance, err)
		}
		delete(raw, keyBalance)
	}
	if v, ok := raw[keyExperience]; ok {
		if err := json.Unmarshal(v, &a.Experience); err != nil {
			return fmt.Errorf("invalid %s field: %w", keyExperience, err)
		}
		delete(raw, keyExperience)
	}
	if v, ok := raw[keyJoinedAt]; ok {
		a.JoinedAt = parseLenientTime(v)
		delete(raw, keyJoinedAt)
	}
	if v, ok := raw[keyLastActivityAt]; ok {
		a.LastActivityAt = parseLenientTime(v)
		delete(raw, keyLastActivityAt)
	}

	if len(raw) > 0 {
		a.Extensions = raw
	} else {
		a.Extensions = nil
	}
	return nil
}

// parseLenientTime accepts the timestamp shapes found in legacy documents.
// Anything unparseable (the original wrote "N/A" for never-active users)
// is treated as unset.
func parseLenientTime(v json.RawMessage) time.Time {
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
