package http

import (
	"html/template"
	"net/http"
	"strings"

	"fintrack/internal/core"
)

// formatMoney renders m with the currency symbol in front, e.g. "$12.50"
// or "-$3.00".
func formatMoney(symbol string, m core.Money) string {
	if m.Cents < 0 {
		return "-" + symbol + core.Money{Cents: -m.Cents}.Fixed()
	}
	return symbol + m.Fixed()
}

// sanitizeInput prepares a single-line form field: tabs and line breaks
// become spaces, other control characters are dropped, and the result is
// trimmed.
func sanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return ' '
		case r < 32 || r == 0x7f:
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// isHTMX reports whether the request was issued by htmx.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func templateFuncs(symbol string) template.FuncMap {
	return template.FuncMap{
		"money": func(m core.Money) string { return formatMoney(symbol, m) },
	}
}
