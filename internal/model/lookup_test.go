package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLookupKey(t *testing.T) {
	tests := []struct {
		raw  string
		want LookupKey
	}{
		{"@Ivan_Petrov", LookupKey{Kind: ByHandle, Value: "ivan_petrov"}},
		{"ivan_petrov", LookupKey{Kind: ByHandle, Value: "ivan_petrov"}},
		{" Ivan@Gmail.com ", LookupKey{Kind: ByEmail, Value: "ivan@gmail.com"}},
	}

	for _, tt := range tests {
		got, err := ParseLookupKey(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}

	_, err := ParseLookupKey("  ")
	assert.ErrorIs(t, err, ErrEmptyLookup)
	_, err = ParseLookupKey("@")
	assert.ErrorIs(t, err, ErrEmptyLookup)
}

func TestLookupKeyString(t *testing.T) {
	assert.Equal(t, "@ivan", HandleKey("@Ivan").String())
	assert.Equal(t, "ivan@gmail.com", LookupKey{Kind: ByEmail, Value: "ivan@gmail.com"}.String())
}

func TestDecisionStatus(t *testing.T) {
	assert.Equal(t, PermissionApproved, Approve.Status())
	assert.Equal(t, PermissionDenied, Deny.Status())
	assert.True(t, PermissionPending.Valid())
	assert.False(t, PermissionStatus("revoked").Valid())
}
