// Package i18n holds every user-facing string of the storefront in Uzbek and Russian.
package i18n

import (
	"fmt"
	"strings"
)

// Lang is a supported interface language.
type Lang string

const (
	Uz Lang = "uz"
	Ru Lang = "ru"
)

// Langs lists supported languages in the order they are offered to users.
var Langs = []Lang{Uz, Ru}

// ParseLang validates a language tag.
func ParseLang(s string) (Lang, bool) {
	switch Lang(strings.ToLower(strings.TrimSpace(s))) {
	case Uz:
		return Uz, true
	case Ru:
		return Ru, true
	}
	return "", false
}

// Valid reports whether l is one of the supported languages.
func (l Lang) Valid() bool {
	_, ok := ParseLang(string(l))
	return ok
}

// T renders key in lang, formatting args with fmt verbs present in the template.
// Unknown keys or languages render the key itself so gaps are visible instead of blank.
func T(lang Lang, key Key, args ...any) string {
	tmpl, ok := messages[lang][key]
	if !ok {
		return string(key)
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// Both renders key in every language, joined with " / ".
// Used before the user has picked a language.
func Both(key Key, args ...any) string {
	parts := make([]string, 0, len(Langs))
	for _, l := range Langs {
		parts = append(parts, T(l, key, args...))
	}
	return strings.Join(parts, " / ")
}

// Has reports whether lang defines key.
func Has(lang Lang, key Key) bool {
	_, ok := messages[lang][key]
	return ok
}

// AdminLabel is the language-neutral caption of the admin entry on the language picker.
const AdminLabel = "👑 Admin"

var langLabels = map[Lang]string{
	Uz: "🇺🇿 O'zbekcha",
	Ru: "🇷🇺 Русский",
}

// Label returns the native name of l for the language picker.
func Label(l Lang) string {
	if s, ok := langLabels[l]; ok {
		return s
	}
	return string(l)
}
