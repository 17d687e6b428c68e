package service

import "testing"

func TestNegotiateLocale(t *testing.T) {
	cases := []struct {
		stored, header, want string
	}{
		{"es", "en-US", "es"},
		{"", "es-MX,es;q=0.9,en;q=0.5", "es"},
		{"", "fr-FR", "en"},
		{"", "", "en"},
		{"xx", "es", "es"},
		{"", "de;q=0.9,es;q=0.8", "es"},
	}
	for _, tc := range cases {
		if got := NegotiateLocale(tc.stored, tc.header); got != tc.want {
			t.Fatalf("NegotiateLocale(%q, %q) = %q, want %q", tc.stored, tc.header, got, tc.want)
		}
	}
}

func TestIsSupportedLocale(t *testing.T) {
	if !IsSupportedLocale("en") || !IsSupportedLocale("es") {
		t.Fatalf("en and es must be supported")
	}
	if IsSupportedLocale("fr") || IsSupportedLocale("") {
		t.Fatalf("fr and empty must not be supported")
	}
}
