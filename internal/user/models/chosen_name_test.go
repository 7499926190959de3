package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "steward/pkg/domain-errors"
)

func TestParseChosenName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		fullName bool
		want     string
		wantErr  bool
	}{
		{name: "simple full name", input: "Ada Lovelace", fullName: true, want: "Ada Lovelace"},
		{name: "collapses whitespace", input: "  Ada \t  Lovelace ", fullName: true, want: "Ada Lovelace"},
		{name: "hyphenated surname", input: "Mary Smith-Jones", fullName: true, want: "Mary Smith-Jones"},
		{name: "accented letters", input: "Zoë Ångström", fullName: true, want: "Zoë Ångström"},
		{name: "decomposed accent normalizes", input: "Zoe\u0308 Smith", fullName: true, want: "Zo\u00eb Smith"},
		{name: "combining mark kept when no precomposed form", input: "A\u0331da Smith", fullName: true, want: "A\u0331da Smith"},
		{name: "non-latin script", input: "Иван Петров", fullName: true, want: "Иван Петров"},
		{name: "single token allowed when not full", input: "Ada", fullName: false, want: "Ada"},
		{name: "single token refused when full", input: "Ada", fullName: true, wantErr: true},
		{name: "empty", input: "   ", wantErr: true},
		{name: "digits", input: "Ada L0velace", wantErr: true},
		{name: "punctuation", input: "Ada O'Brien", wantErr: true},
		{name: "hyphen only token", input: "Ada -", wantErr: true},
		{name: "leading combining mark", input: "\u0301Ada Smith", wantErr: true},
		{name: "invalid utf8", input: "Ada \xff", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseChosenName(tt.input, tt.fullName)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
				assert.True(t, got.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseChosenNameIsIdempotent(t *testing.T) {
	first, err := ParseChosenName("  Grace   Brewster  Hopper ", true)
	require.NoError(t, err)
	second, err := ParseChosenName(first.String(), true)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 3, second.TokenCount())
}
