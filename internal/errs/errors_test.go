package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "plain",
			err:  New(KindValidation, "model has blocking errors"),
			want: "[validation_error] model has blocking errors",
		},
		{
			name: "located",
			err:  Parse("unterminated string literal", At(3, 17)),
			want: "[parse_error] unterminated string literal at line 3, column 17",
		},
		{
			name: "wrapped",
			err:  Wrap(KindStorage, "put failed", errors.New("connection refused")),
			want: "[storage_failed] put failed: connection refused",
		},
		{
			name: "size limit",
			err:  SizeLimit("input size", 4194304),
			want: "[size_limit_exceeded] input exceeds input size limit of 4194304",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		pred func(error) bool
	}{
		{"parse", Parse("bad token", Location{}), IsParse},
		{"size limit", SizeLimit("rows", 1000), IsSizeLimit},
		{"merge conflict", New(KindMergeConflict, "dup"), IsMergeConflict},
		{"validation", New(KindValidation, "bad"), IsValidation},
		{"unsupported", New(KindUnsupported, "nope"), IsUnsupported},
		{"invalid input", New(KindInvalidInput, "bad arg"), IsInvalidInput},
		{"storage", New(KindStorage, "io"), IsStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.pred(tt.err))
			assert.False(t, tt.pred(errors.New("plain")))
		})
	}
}

func TestPredicates_WrappedChain(t *testing.T) {
	inner := Parse("bad token", At(1, 1))
	outer := fmt.Errorf("running source 2: %w", inner)

	assert.True(t, IsParse(outer))
	assert.False(t, IsValidation(outer))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(KindStorage, "put failed", cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, cause, err.Unwrap())
}
