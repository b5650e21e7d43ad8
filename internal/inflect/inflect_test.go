package inflect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlural(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"customer", "customers"},
		{"order", "orders"},
		{"orders", "orders"},
		{"category", "categories"},
		{"box", "boxes"},
		{"church", "churches"},
		{"class", "classes"},
		{"person", "people"},
		{"people", "people"},
		{"status", "statuses"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Plural(tt.in))
		})
	}
}

func TestSingular(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"customers", "customer"},
		{"orders", "order"},
		{"order", "order"},
		{"courses", "course"},
		{"houses", "house"},
		{"categories", "category"},
		{"boxes", "box"},
		{"churches", "church"},
		{"class", "class"},
		{"people", "person"},
		{"statuses", "status"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Singular(tt.in))
		})
	}
}

func TestSameNoun(t *testing.T) {
	assert.True(t, SameNoun("user", "users"))
	assert.True(t, SameNoun("Users", "user"))
	assert.True(t, SameNoun("people", "person"))
	assert.False(t, SameNoun("user", "orders"))
}
