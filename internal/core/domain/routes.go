package domain

import "strings"

const (
	LoginRoute   = "/login"
	LandingRoute = "/dashboard"
)

// PublicRoutes is the allowlist of paths reachable without a session.
type PublicRoutes struct {
	exact    map[string]struct{}
	prefixes []string
}

// NewPublicRoutes builds an allowlist from exact paths and path prefixes.
func NewPublicRoutes(exact []string, prefixes []string) PublicRoutes {
	p := PublicRoutes{exact: make(map[string]struct{}, len(exact)), prefixes: prefixes}
	for _, r := range exact {
		p.exact[r] = struct{}{}
	}
	return p
}

// DefaultPublicRoutes covers the sign-in pages plus static and ops endpoints.
func DefaultPublicRoutes() PublicRoutes {
	return NewPublicRoutes(
		[]string{LoginRoute, "/register", "/forgot-password", "/reset-password", "/locale", "/health", "/health/ready", "/metrics"},
		[]string{"/static/", "/swagger/"},
	)
}

// IsPublic reports whether route may be served without a session.
func (p PublicRoutes) IsPublic(route string) bool {
	if _, ok := p.exact[route]; ok {
		return true
	}
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(route, prefix) {
			return true
		}
	}
	return false
}
