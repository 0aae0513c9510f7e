// Package gate enforces the coarse role to path-prefix policy before any
// route handler runs.
package gate

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/adminpanel/adminpanel/internal/shared"
)

// Outcome is the result of evaluating a path against the policy.
type Outcome int

const (
	// Allow lets the request through.
	Allow Outcome = iota
	// RedirectHome sends an authenticated caller on a guest path to its dashboard.
	RedirectHome
	// Unauthenticated means a protected path was requested without a session.
	Unauthenticated
	// Forbidden means the caller's role does not cover the path.
	Forbidden
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allowed"
	case RedirectHome:
		return "redirect"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Decision carries the outcome plus the redirect target when relevant.
type Decision struct {
	Outcome  Outcome
	Location string
}

// Policy maps roles to the path prefixes they may reach.
type Policy struct {
	// GuestPaths are matched exactly.
	GuestPaths []string `yaml:"guest_paths"`
	// Protected prefixes require a session; everything else is public.
	Protected []string `yaml:"protected"`
	// APIPrefixes receive JSON errors instead of redirects.
	APIPrefixes []string `yaml:"api_prefixes"`
	// Roles lists allowed prefixes per role name. Unknown roles are denied.
	Roles map[string][]string `yaml:"roles"`
}

// DefaultPolicy is the compiled-in table.
func DefaultPolicy() *Policy {
	return &Policy{
		GuestPaths:  []string{"/", "/register"},
		Protected:   []string{"/admin", "/user", "/graphql", "/api/admin", "/api/user"},
		APIPrefixes: []string{"/api/", "/graphql"},
		Roles: map[string][]string{
			"admin": {"/admin", "/graphql/admin", "/graphql/resolver/admin", "/api/admin/"},
			"user":  {"/user", "/graphql/user", "/graphql/resolver/user", "/api/user/"},
		},
	}
}

// LoadPolicy reads a YAML policy file. Omitted sections fall back to the
// defaults; the roles table is mandatory.
func LoadPolicy(file string) (*Policy, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("gate: read policy: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes and validates a YAML policy document.
func ParsePolicy(data []byte) (*Policy, error) {
	var p Policy
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("gate: decode policy: %w", err)
	}
	defaults := DefaultPolicy()
	if p.GuestPaths == nil {
		p.GuestPaths = defaults.GuestPaths
	}
	if p.Protected == nil {
		p.Protected = defaults.Protected
	}
	if p.APIPrefixes == nil {
		p.APIPrefixes = defaults.APIPrefixes
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Policy) validate() error {
	if len(p.Roles) == 0 {
		return errors.New("gate: policy defines no roles")
	}
	check := func(kind string, values []string) error {
		for _, v := range values {
			if !strings.HasPrefix(v, "/") {
				return fmt.Errorf("gate: %s entry %q must start with /", kind, v)
			}
		}
		return nil
	}
	if err := check("guest_paths", p.GuestPaths); err != nil {
		return err
	}
	if err := check("protected", p.Protected); err != nil {
		return err
	}
	if err := check("api_prefixes", p.APIPrefixes); err != nil {
		return err
	}
	for role, prefixes := range p.Roles {
		if role == "" {
			return errors.New("gate: empty role name")
		}
		if err := check("roles."+role, prefixes); err != nil {
			return err
		}
	}
	return nil
}

// Decide evaluates a request path for a caller. role is empty for
// anonymous callers.
func (p *Policy) Decide(rawPath, role string) Decision {
	clean := NormalizePath(rawPath)
	if p.isGuest(clean) {
		if role != "" {
			return Decision{Outcome: RedirectHome, Location: shared.DashboardPath(role)}
		}
		return Decision{Outcome: Allow}
	}
	if !hasAnyPrefix(clean, p.Protected) {
		return Decision{Outcome: Allow}
	}
	if role == "" {
		return Decision{Outcome: Unauthenticated, Location: "/"}
	}
	prefixes, ok := p.Roles[role]
	if !ok || !hasAnyPrefix(clean, prefixes) {
		return Decision{Outcome: Forbidden, Location: "/"}
	}
	return Decision{Outcome: Allow}
}

// IsAPI reports whether the path is served as JSON.
func (p *Policy) IsAPI(rawPath string) bool {
	return hasAnyPrefix(NormalizePath(rawPath), p.APIPrefixes)
}

// IsProtected reports whether the path requires an authenticated caller.
func (p *Policy) IsProtected(rawPath string) bool {
	clean := NormalizePath(rawPath)
	return !p.isGuest(clean) && hasAnyPrefix(clean, p.Protected)
}

func (p *Policy) isGuest(clean string) bool {
	for _, g := range p.GuestPaths {
		if clean == g {
			return true
		}
	}
	return false
}

// NormalizePath cleans dot segments and duplicate slashes while keeping a
// trailing slash.
func NormalizePath(raw string) string {
	if raw == "" {
		return "/"
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	clean := path.Clean(raw)
	if strings.HasSuffix(raw, "/") && clean != "/" {
		clean += "/"
	}
	return clean
}

func hasAnyPrefix(p string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}
