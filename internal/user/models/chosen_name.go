package models

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	dErrors "steward/pkg/domain-errors"
)

const maxChosenNameLength = 200

// ChosenName is a display name made of letters, spaces, hyphens and
// combining marks. The zero value is unset.
type ChosenName struct {
	value string
}

// ParseChosenName normalizes s to NFC, trims it and collapses inner
// whitespace. When requireFullName is set the result must have at least two
// space-separated tokens.
func ParseChosenName(s string, requireFullName bool) (ChosenName, error) {
	if !utf8.ValidString(s) {
		return ChosenName{}, dErrors.New(dErrors.CodeValidation, "chosen name must be valid UTF-8")
	}
	tokens := strings.Fields(norm.NFC.String(s))
	if len(tokens) == 0 {
		return ChosenName{}, dErrors.New(dErrors.CodeValidation, "chosen name is required")
	}
	for _, tok := range tokens {
		if err := validateToken(tok); err != nil {
			return ChosenName{}, err
		}
	}
	if requireFullName && len(tokens) < 2 {
		return ChosenName{}, dErrors.New(dErrors.CodeValidation, "chosen name must include at least two names")
	}
	value := strings.Join(tokens, " ")
	if utf8.RuneCountInString(value) > maxChosenNameLength {
		return ChosenName{}, dErrors.New(dErrors.CodeValidation, "chosen name is too long")
	}
	return ChosenName{value: value}, nil
}

// A token needs at least one letter; a combining mark may not lead it.
func validateToken(tok string) error {
	letters := 0
	for i, r := range tok {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.Is(unicode.M, r):
			if i == 0 {
				return dErrors.New(dErrors.CodeValidation, "chosen name has a misplaced combining mark")
			}
		case r == '-':
		default:
			return dErrors.New(dErrors.CodeValidation, "chosen name may only contain letters, spaces and hyphens")
		}
	}
	if letters == 0 {
		return dErrors.New(dErrors.CodeValidation, "chosen name must contain letters")
	}
	return nil
}

// MustChosenName is for tests and fixtures.
func MustChosenName(s string) ChosenName {
	n, err := ParseChosenName(s, false)
	if err != nil {
		panic(err)
	}
	return n
}

func (n ChosenName) String() string { return n.value }

func (n ChosenName) IsZero() bool { return n.value == "" }

// TokenCount is the number of space-separated parts.
func (n ChosenName) TokenCount() int {
	return len(strings.Fields(n.value))
}
