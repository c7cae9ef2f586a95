package id

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ShortLen is the number of characters shown for an ID in listings.
const ShortLen = 8

var (
	// ErrNoMatch means no ID starts with the given prefix.
	ErrNoMatch = errors.New("no matching id")
	// ErrAmbiguous means more than one ID starts with the given prefix.
	ErrAmbiguous = errors.New("ambiguous id prefix")
)

// New returns a fresh random bonus ID.
func New() string {
	return uuid.NewString()
}

// Short returns the display form of an ID: the first ShortLen characters.
// IDs that are not UUIDs (such as imported timestamps) are returned whole
// when shorter than that.
func Short(id string) string {
	if len(id) <= ShortLen {
		return id
	}
	return id[:ShortLen]
}

// Resolve finds the single ID in ids equal to ref, or starting with ref.
// An exact match always wins over prefix matches.
func Resolve(ref string, ids []string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", ErrNoMatch)
	}

	var matches []string
	for _, candidate := range ids {
		if candidate == ref {
			return candidate, nil
		}
		if strings.HasPrefix(candidate, ref) {
			matches = append(matches, candidate)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %q", ErrNoMatch, ref)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %q matches %d bonuses", ErrAmbiguous, ref, len(matches))
	}
}
