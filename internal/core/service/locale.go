package service

import (
	"golang.org/x/text/language"
)

// DefaultLocale is used when neither the session nor the browser names a
// supported language.
const DefaultLocale = "en"

var (
	supportedLocales = []language.Tag{language.English, language.Spanish}
	localeMatcher    = language.NewMatcher(supportedLocales)
)

// IsSupportedLocale reports whether locale is one the console offers.
func IsSupportedLocale(locale string) bool {
	tag, err := language.Parse(locale)
	if err != nil {
		return false
	}
	for _, supported := range supportedLocales {
		if tag == supported {
			return true
		}
	}
	return false
}

// NegotiateLocale prefers the stored locale, then the Accept-Language header.
func NegotiateLocale(stored, acceptLanguage string) string {
	if stored != "" && IsSupportedLocale(stored) {
		return stored
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	_, index, confidence := localeMatcher.Match(tags...)
	if confidence == language.No {
		return DefaultLocale
	}
	return supportedLocales[index].String()
}

// SupportedLocales lists the offered locales in display order.
func SupportedLocales() []string {
	out := make([]string, len(supportedLocales))
	for i, tag := range supportedLocales {
		out[i] = tag.String()
	}
	return out
}
