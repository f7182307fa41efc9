// Package identity verifies bearer tokens and checks roles.
package identity

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is what a principal may do.
type Role string

const (
	RoleLearner Role = "learner"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// ParseRole converts a string to a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(s)); r {
	case RoleLearner, RoleTeacher, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Principal is an authenticated caller.
type Principal struct {
	ID   string
	Role Role
}

// System is the principal used by scheduled jobs.
var System = Principal{ID: "system", Role: RoleAdmin}

// Config holds the token settings.
type Config struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer" validate:"required"`
	// Leeway tolerates clock skew when checking expiry.
	Leeway time.Duration `yaml:"leeway" validate:"gte=0"`
}

// DefaultConfig returns token settings without a secret.
func DefaultConfig() Config {
	return Config{Issuer: "skilltree", Leeway: 30 * time.Second}
}

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// ForbiddenError reports a principal lacking the role for an action.
type ForbiddenError struct {
	Principal Principal
	Action    string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("%s (%s) may not %s", e.Principal.ID, e.Principal.Role, e.Action)
}

// RequireRole returns a *ForbiddenError unless p has one of roles.
func RequireRole(p Principal, action string, roles ...Role) error {
	if slices.Contains(roles, p.Role) {
		return nil
	}
	return &ForbiddenError{Principal: p, Action: action}
}

// RequireSelfOrStaff allows learners to act on their own data and teachers
// or admins to act on anyone's.
func RequireSelfOrStaff(p Principal, learnerID, action string) error {
	if p.Role == RoleTeacher || p.Role == RoleAdmin {
		return nil
	}
	if p.Role == RoleLearner && p.ID == learnerID {
		return nil
	}
	return &ForbiddenError{Principal: p, Action: action}
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 bearer tokens.
type Verifier struct {
	secret []byte
	issuer string
	leeway time.Duration
	now    func() time.Time
}

// NewVerifier returns a Verifier for cfg. now may be nil for the system clock.
func NewVerifier(cfg Config, now func() time.Time) (*Verifier, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("identity: token secret is not configured")
	}
	if now == nil {
		now = time.Now
	}
	return &Verifier{secret: []byte(cfg.Secret), issuer: cfg.Issuer, leeway: cfg.Leeway, now: now}, nil
}

// Verify parses token and returns its principal.
func (v *Verifier) Verify(token string) (Principal, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return Principal{}, fmt.Errorf("%w: empty", ErrInvalidToken)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
	)
	var c claims
	if _, err := parser.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}); err != nil {
		return Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if c.Subject == "" {
		return Principal{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	role, err := ParseRole(c.Role)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return Principal{ID: c.Subject, Role: role}, nil
}

// Issuer mints tokens. It exists for development tooling and tests; the
// host product issues tokens in production.
type Issuer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewIssuer returns an Issuer for cfg. now may be nil for the system clock.
func NewIssuer(cfg Config, now func() time.Time) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("identity: token secret is not configured")
	}
	if now == nil {
		now = time.Now
	}
	return &Issuer{secret: []byte(cfg.Secret), issuer: cfg.Issuer, now: now}, nil
}

// Issue signs a token for p valid for ttl.
func (i *Issuer) Issue(p Principal, ttl time.Duration) (string, error) {
	now := i.now()
	c := claims{
		Role: string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
}
