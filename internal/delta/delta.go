// Package delta filters leads down to those whose tracked content changed
// since the previous run.
package delta

import (
	"context"
	"crypto/sha1" //nolint:gosec // change detection only
	"encoding/hex"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/model"
)

// DefaultStateKey names the persisted fingerprint map.
const DefaultStateKey = "LEAD_STATE"

// StateStore is the key-value collaborator holding the fingerprint map.
type StateStore interface {
	GetValue(ctx context.Context, name string) ([]byte, error)
	SetValue(ctx context.Context, name string, value []byte) error
}

// State maps dedupe ids to content hashes.
type State map[string]string

// Tracker compares leads against the previous run's fingerprints.
type Tracker struct {
	store StateStore
	key   string
}

// NewTracker returns a Tracker persisting under key, or DefaultStateKey if
// key is empty.
func NewTracker(store StateStore, key string) *Tracker {
	if key == "" {
		key = DefaultStateKey
	}
	return &Tracker{store: store, key: key}
}

// Result reports what Apply did.
type Result struct {
	Leads     []model.Lead
	Previous  int // entries in the loaded state
	Unchanged int
	New       int
	Changed   int
}

// Apply returns the subsequence of leads that are new or whose content hash
// differs from the stored one, in input order, and replaces the stored state
// with the hashes of every input lead. A failure to load state is logged and
// treated as empty state. A failure to save state is returned.
func (t *Tracker) Apply(ctx context.Context, leads []model.Lead) (*Result, error) {
	prev := t.Load(ctx)

	res := &Result{Previous: len(prev), Leads: make([]model.Lead, 0, len(leads))}
	next := make(State, len(leads))
	for _, l := range leads {
		h := ContentHash(l)
		next[l.DedupeID] = h

		old, ok := prev[l.DedupeID]
		switch {
		case !ok:
			res.New++
		case old != h:
			res.Changed++
		default:
			res.Unchanged++
			continue
		}
		res.Leads = append(res.Leads, l)
	}

	if err := t.Save(ctx, next); err != nil {
		return nil, err
	}

	zap.L().Info("delta: applied",
		zap.Int("input", len(leads)),
		zap.Int("previous", res.Previous),
		zap.Int("new", res.New),
		zap.Int("changed", res.Changed),
		zap.Int("unchanged", res.Unchanged),
	)
	return res, nil
}

// Load reads the stored state. Missing, unreadable, or corrupt state yields
// an empty map.
func (t *Tracker) Load(ctx context.Context) State {
	data, err := t.store.GetValue(ctx, t.key)
	if err != nil {
		zap.L().Warn("delta: load state failed, treating all leads as new",
			zap.String("key", t.key), zap.Error(err))
		return State{}
	}
	if len(data) == 0 {
		return State{}
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		zap.L().Warn("delta: decode state failed, treating all leads as new",
			zap.String("key", t.key), zap.Error(err))
		return State{}
	}
	if s == nil {
		s = State{}
	}
	return s
}

// Save replaces the stored state in one write.
func (t *Tracker) Save(ctx context.Context, s State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return eris.Wrap(err, "delta: encode state")
	}
	if err := t.store.SetValue(ctx, t.key, data); err != nil {
		return eris.Wrap(err, "delta: save state")
	}
	return nil
}

// fingerprint fixes the hashed fields and their order.
type fingerprint struct {
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	PhoneE164 string   `json:"phoneE164"`
	Domain    string   `json:"domain"`
	Emails    []string `json:"emails"`
	Score     int      `json:"score"`
}

// ContentHash returns the hex SHA-1 of the lead's tracked fields.
func ContentHash(l model.Lead) string {
	emails := make([]string, len(l.Contacts.Emails))
	for i, e := range l.Contacts.Emails {
		emails[i] = e.Email
	}
	data, _ := json.Marshal(fingerprint{
		Name:      l.Business.Name,
		Address:   l.Business.Address.Formatted,
		PhoneE164: l.Business.PhoneE164,
		Domain:    l.Online.Domain,
		Emails:    emails,
		Score:     l.Score.LeadScore,
	})
	sum := sha1.Sum(data) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
