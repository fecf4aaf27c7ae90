package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	cst "wuyrush.io/photo/constants"
)

func TestValidPhotoName(t *testing.T) {
	tcs := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "Generated", input: NewPhotoName(), expected: true},
		{name: "Canonical", input: "7c9e6679-7425-40de-944b-e07fc1f90ae7.jpg", expected: true},
		{name: "WrongExt", input: "7c9e6679-7425-40de-944b-e07fc1f90ae7.png", expected: false},
		{name: "NoExt", input: "7c9e6679-7425-40de-944b-e07fc1f90ae7", expected: false},
		{name: "NotUUID", input: "cat.jpg", expected: false},
		{name: "PathTraversal", input: "../secret.jpg", expected: false},
		{name: "Empty", input: "", expected: false},
		{name: "ExtOnly", input: ".jpg", expected: false},
	}
	for _, c := range tcs {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expected, ValidPhotoName(c.input))
		})
	}
}

func TestNewPhotoNameUnique(t *testing.T) {
	a, b := NewPhotoName(), NewPhotoName()
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, cst.PhotoExt))
}

func TestBlobPropertiesOwnedBy(t *testing.T) {
	tcs := []struct {
		name      string
		props     *BlobProperties
		principal string
		expected  bool
	}{
		{
			name:      "Owner",
			props:     &BlobProperties{Metadata: map[string]string{cst.MetaKeyOwner: "alice"}},
			principal: "alice",
			expected:  true,
		},
		{
			name:      "NotOwner",
			props:     &BlobProperties{Metadata: map[string]string{cst.MetaKeyOwner: "alice"}},
			principal: "bob",
			expected:  false,
		},
		{
			name:      "CaseSensitive",
			props:     &BlobProperties{Metadata: map[string]string{cst.MetaKeyOwner: "alice"}},
			principal: "Alice",
			expected:  false,
		},
		{
			name:      "NoOwnerMetadata",
			props:     &BlobProperties{Metadata: map[string]string{}},
			principal: "",
			expected:  false,
		},
		{
			name:      "NilProps",
			props:     nil,
			principal: "alice",
			expected:  false,
		},
	}
	for _, c := range tcs {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expected, c.props.OwnedBy(c.principal))
		})
	}
}

func TestLowerKeys(t *testing.T) {
	out := LowerKeys(map[string]string{"Htbox-User-Principal": "alice", "x": "y"})
	assert.Equal(t, map[string]string{cst.MetaKeyOwner: "alice", "x": "y"}, out)
}
