package i18n

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEveryKeyDefinedForEveryLanguage(t *testing.T) {
	for _, key := range Keys() {
		for _, lang := range Langs {
			assert.Truef(t, Has(lang, key), "%s missing for %s", key, lang)
		}
	}
}

func TestTFormatsArguments(t *testing.T) {
	assert.Equal(t, "Jami: 3500 so'm", T(Uz, CartTotal, 3500))
	assert.Equal(t, "Итого: 3500 сум", T(Ru, CartTotal, 3500))
	assert.Equal(t, "Товары категории Electronics:", T(Ru, ProductsIn, "Electronics"))
}

func TestTUnknownKeyFallsBackToKey(t *testing.T) {
	assert.Equal(t, "no_such_key", T(Uz, Key("no_such_key")))
	assert.Equal(t, string(MainMenu), T(Lang("en"), MainMenu))
}

func TestBothJoinsLanguagesInOrder(t *testing.T) {
	got := Both(ChooseLanguage)
	assert.Equal(t, "Tilni tanlang / Выберите язык", got)
	assert.True(t, strings.HasPrefix(Both(NotAdmin), T(Uz, NotAdmin)))
}

func TestParseLang(t *testing.T) {
	l, ok := ParseLang(" RU ")
	assert.True(t, ok)
	assert.Equal(t, Ru, l)

	_, ok = ParseLang("en")
	assert.False(t, ok)
	assert.False(t, Lang("").Valid())
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "🇷🇺 Русский", Label(Ru))
	assert.Equal(t, "en", Label(Lang("en")))
}
