// Package textnorm maps raw input text to the canonical form that rule
// patterns are matched against.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// invisibles replaces every format (Cf), space separator (Zs) and control (Cc)
// rune with a single ASCII space. Tab and newline are left for Normalize's
// whitespace collapse.
var invisibles = runes.Map(func(r rune) rune {
	if r == '\t' || r == '\n' {
		return r
	}
	if unicode.In(r, unicode.Cf, unicode.Zs, unicode.Cc) {
		return ' '
	}
	return r
})

// Normalize returns text in canonical comparison form:
//  1. empty input returns "" immediately
//  2. invalid UTF-8 becomes U+FFFD, then NFKC compatibility normalization
//  3. lowercase
//  4. Cf, Zs and Cc runes other than tab and newline become one space each
//  5. whitespace runs collapse to one space; leading and trailing space is trimmed
//
// Normalize never fails and is idempotent.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = compat(text)
	text = lower(text)
	text = blankInvisibles(text)
	return strings.Join(strings.Fields(text), " ")
}

// compat applies NFKC. Invalid UTF-8 sequences are replaced with U+FFFD
// first so every later step sees valid text. Input the transformer rejects
// is returned sanitized but otherwise unchanged.
func compat(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, string(utf8.RuneError))
	}
	out, _, err := transform.String(norm.NFKC, s)
	if err != nil {
		return s
	}
	return out
}

// lower case-folds with Unicode special casing rules. A Caser keeps state, so
// one is built per call.
func lower(s string) string {
	out, _, err := transform.String(cases.Lower(language.Und), s)
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

func blankInvisibles(s string) string {
	out, _, err := transform.String(invisibles, s)
	if err != nil {
		return s
	}
	return out
}
