package settings

import "context"

// Blocklist reads the dynamic recipient block list: a JSON array of
// substrings disallowed in recipient addresses.
type Blocklist struct {
	store *Store
	key   string
}

// NewBlocklist creates a block list reader over the given setting key.
func NewBlocklist(store *Store, key string) *Blocklist {
	return &Blocklist{store: store, key: key}
}

// Substrings returns the current block list. A missing setting is an
// empty list, not an error.
func (b *Blocklist) Substrings(ctx context.Context) ([]string, error) {
	var list []string
	found, err := b.store.GetJSON(ctx, b.key, &list)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return list, nil
}
