// Package store persists the bonus list. Every backend keeps the whole list
// as one JSON document under a single storage key, the same shape the
// browser app kept in localStorage.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bonustrack-dev/bonustrack/internal/model"
)

// DefaultKey is the storage key used when none is configured.
const DefaultKey = "bankBonuses"

// Store loads and saves the full bonus list.
type Store interface {
	// Load returns the saved bonuses, or an empty list when nothing was saved.
	Load(ctx context.Context) ([]model.Bonus, error)
	// Save replaces the saved list with bonuses.
	Save(ctx context.Context, bonuses []model.Bonus) error
	Close() error
}

// Backend names a Store implementation.
type Backend string

const (
	BackendJSON   Backend = "json"
	BackendSQLite Backend = "sqlite"
)

// Open returns the Store for backend rooted at dataDir.
func Open(backend Backend, dataDir, key string) (Store, error) {
	if strings.TrimSpace(key) == "" {
		key = DefaultKey
	}
	switch backend {
	case BackendJSON, "":
		return NewJSONFile(dataDir, key), nil
	case BackendSQLite:
		return OpenSQLite(dataDir, key)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

func encode(bonuses []model.Bonus) ([]byte, error) {
	if bonuses == nil {
		bonuses = []model.Bonus{}
	}
	data, err := json.MarshalIndent(bonuses, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding bonuses: %w", err)
	}
	return append(data, '\n'), nil
}

func decode(data []byte) ([]model.Bonus, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []model.Bonus{}, nil
	}
	var bonuses []model.Bonus
	if err := json.Unmarshal(data, &bonuses); err != nil {
		return nil, fmt.Errorf("decoding bonuses: %w", err)
	}
	if bonuses == nil {
		bonuses = []model.Bonus{}
	}
	for i := range bonuses {
		if bonuses[i].Deposits == nil {
			bonuses[i].Deposits = []model.Deposit{}
		}
	}
	return bonuses, nil
}
