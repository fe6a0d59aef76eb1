// Package i18n holds the language helpers shared by the locale middleware
// and the API.
package i18n

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// Locale is one entry of the configured language list.
type Locale struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// ToLocale turns a language code into a locale name: "en-us" gives "en_US"
// and "sr-latn" gives "sr_Latn".
func ToLocale(lang string) string {
	p := strings.Index(lang, "-")
	if p < 0 {
		return strings.ToLower(lang)
	}
	country := strings.ToLower(lang[p+1:])
	if len(country) > 2 {
		country = strings.ToUpper(country[:1]) + country[1:]
	} else {
		country = strings.ToUpper(country)
	}
	return strings.ToLower(lang[:p]) + "_" + country
}

// Locales lists languages sorted by code, with codes in URL form ("pt-BR").
func Locales(languages map[string]string) []Locale {
	keys := make([]string, 0, len(languages))
	for k := range languages {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return strings.ToLower(keys[i]) < strings.ToLower(keys[j])
	})

	out := make([]Locale, 0, len(keys))
	for _, k := range keys {
		out = append(out, Locale{
			Code: strings.ReplaceAll(ToLocale(k), "_", "-"),
			Name: languages[k],
		})
	}
	return out
}

// Languages resolves request languages against the configured set.
type Languages struct {
	def     string
	codes   []string
	matcher language.Matcher
}

// NewLanguages builds the resolver. def is used when nothing matches and
// is added to the set if missing.
func NewLanguages(languages map[string]string, def string) *Languages {
	def = strings.ReplaceAll(ToLocale(def), "_", "-")

	codes := []string{def}
	for _, l := range Locales(languages) {
		if !strings.EqualFold(l.Code, def) {
			codes = append(codes, l.Code)
		}
	}

	// The matcher's first tag is its fallback, so def goes first.
	tags := make([]language.Tag, 0, len(codes))
	valid := make([]string, 0, len(codes))
	for _, c := range codes {
		tag, err := language.Parse(c)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		valid = append(valid, c)
	}

	return &Languages{
		def:     def,
		codes:   valid,
		matcher: language.NewMatcher(tags),
	}
}

func (l *Languages) Default() string {
	return l.def
}

// Supported returns the codes in URL form, default first.
func (l *Languages) Supported() []string {
	out := make([]string, len(l.codes))
	copy(out, l.codes)
	return out
}

// Normalize maps a URL prefix such as "en-us" or "de-AT" to a supported code.
func (l *Languages) Normalize(lang string) (string, bool) {
	if lang == "" {
		return "", false
	}
	for _, c := range l.codes {
		if strings.EqualFold(c, lang) {
			return c, true
		}
	}
	if p := strings.Index(lang, "-"); p > 0 {
		base := lang[:p]
		for _, c := range l.codes {
			if strings.EqualFold(c, base) {
				return c, true
			}
		}
	}
	return "", false
}

// Match picks the best supported code for an Accept-Language header.
func (l *Languages) Match(acceptLanguage string) string {
	acceptLanguage = strings.TrimSpace(acceptLanguage)
	if acceptLanguage == "" {
		return l.def
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return l.def
	}
	_, idx, conf := l.matcher.Match(tags...)
	if conf == language.No || idx < 0 || idx >= len(l.codes) {
		return l.def
	}
	return l.codes[idx]
}
