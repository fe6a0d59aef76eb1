package middleware

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// SafeQuery re-encodes a raw query string for use in a redirect. Values
// whose decoded bytes are not valid UTF-8 are read as Latin-1. Pair order is
// kept and keys listed in drop are removed.
func SafeQuery(raw string, drop ...string) string {
	if raw == "" {
		return ""
	}
	dropped := make(map[string]bool, len(drop))
	for _, k := range drop {
		dropped[k] = true
	}

	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == '&' || r == ';' })
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		rawKey, rawValue, hasValue := strings.Cut(part, "=")
		key := decodeComponent(rawKey)
		if dropped[key] {
			continue
		}
		if !hasValue {
			out = append(out, url.QueryEscape(key))
			continue
		}
		out = append(out, url.QueryEscape(key)+"="+url.QueryEscape(decodeComponent(rawValue)))
	}
	return strings.Join(out, "&")
}

// decodeComponent percent-decodes s, leaving malformed escapes as they are.
func decodeComponent(s string) string {
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '+':
			buf = append(buf, ' ')
		case c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]):
			buf = append(buf, unhex(s[i+1])<<4|unhex(s[i+2]))
			i += 2
		default:
			buf = append(buf, c)
		}
	}
	if utf8.Valid(buf) {
		return string(buf)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(buf)
	if err != nil {
		return strings.ToValidUTF8(string(buf), "")
	}
	return string(decoded)
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

// withQuery joins an escaped path and a query.
func withQuery(path, query string) string {
	if query == "" {
		return path
	}
	return path + "?" + query
}

func escapePath(path string) string {
	return (&url.URL{Path: path}).EscapedPath()
}
