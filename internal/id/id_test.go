package id

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	a := New()
	b := New()
	assert.NotEqual(t, a, b)

	_, err := uuid.Parse(a)
	require.NoError(t, err, "New should return a UUID")
}

func TestShort(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"0c6f9a2e-4b1d-4f3e-9a55-8f0d2c7b1e11", "0c6f9a2e"},
		{"1704067200000", "17040672"},
		{"abc", "abc"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Short(tt.input))
	}
}

func TestResolve(t *testing.T) {
	ids := []string{"abc123", "abd456", "xyz789", "xyz"}

	tests := []struct {
		ref  string
		want string
	}{
		{"abc", "abc123"},
		{"abc123", "abc123"},
		{"abd", "abd456"},
		{"xyz", "xyz"}, // exact match beats prefix match on xyz789
		{"xyz7", "xyz789"},
		{"  abc  ", "abc123"},
	}
	for _, tt := range tests {
		got, err := Resolve(tt.ref, ids)
		require.NoError(t, err, "ref: %s", tt.ref)
		assert.Equal(t, tt.want, got)
	}
}

func TestResolve_Errors(t *testing.T) {
	ids := []string{"abc123", "abd456"}

	_, err := Resolve("ab", ids)
	assert.ErrorIs(t, err, ErrAmbiguous)

	_, err = Resolve("zzz", ids)
	assert.ErrorIs(t, err, ErrNoMatch)

	_, err = Resolve("", ids)
	assert.ErrorIs(t, err, ErrNoMatch)

	_, err = Resolve("abc", nil)
	assert.ErrorIs(t, err, ErrNoMatch)
}
