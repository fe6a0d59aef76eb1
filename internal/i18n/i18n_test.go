package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testLanguages = map[string]string{
	"en-us":   "English (US)",
	"de":      "Deutsch",
	"pt-br":   "Português (do Brasil)",
	"sr-latn": "Srpski",
	"ja":      "日本語",
}

func TestToLocale(t *testing.T) {
	assert.Equal(t, "en_US", ToLocale("en-us"))
	assert.Equal(t, "en_US", ToLocale("EN-US"))
	assert.Equal(t, "sr_Latn", ToLocale("sr-latn"))
	assert.Equal(t, "de", ToLocale("de"))
}

func TestLocales(t *testing.T) {
	got := Locales(testLanguages)
	assert.Equal(t, []Locale{
		{Code: "de", Name: "Deutsch"},
		{Code: "en-US", Name: "English (US)"},
		{Code: "ja", Name: "日本語"},
		{Code: "pt-BR", Name: "Português (do Brasil)"},
		{Code: "sr-Latn", Name: "Srpski"},
	}, got)
}

func TestNormalize(t *testing.T) {
	l := NewLanguages(testLanguages, "en-US")

	cases := map[string]string{
		"en-us": "en-US",
		"EN-US": "en-US",
		"de":    "de",
		"de-AT": "de",
		"pt-br": "pt-BR",
	}
	for in, want := range cases {
		got, ok := l.Normalize(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "xx", "firefox", "about"} {
		_, ok := l.Normalize(in)
		assert.False(t, ok, in)
	}
}

func TestMatch(t *testing.T) {
	l := NewLanguages(testLanguages, "en-US")

	assert.Equal(t, "en-US", l.Default())
	assert.Equal(t, "en-US", l.Supported()[0])
	assert.Equal(t, "en-US", l.Match(""))
	assert.Equal(t, "de", l.Match("de-DE,de;q=0.9,en;q=0.5"))
	assert.Equal(t, "ja", l.Match("ja"))
	assert.Equal(t, "pt-BR", l.Match("pt-BR"))
	assert.Equal(t, "en-US", l.Match("xx-YY"))
	assert.Equal(t, "en-US", l.Match(";;;garbage"))
}
