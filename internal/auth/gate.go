package auth

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"sweetshop/internal/errors"
)

// Identity is the verified claim set of a session token.
type Identity struct {
	AccountID uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"isAdmin"`
}

// Requirement is the access level an operation needs.
type Requirement int

const (
	// RequireSession admits any authenticated account.
	RequireSession Requirement = iota
	// RequireAdmin admits administrators only.
	RequireAdmin
)

// Decision is the outcome of running the gate: either an identity or the
// first check that failed.
type Decision struct {
	Identity *Identity
	Err      error
}

// Allowed reports whether every check passed.
func (d Decision) Allowed() bool {
	return d.Err == nil && d.Identity != nil
}

type evaluation struct {
	token    string
	identity *Identity
}

type check func(g *Gate, ev *evaluation) error

// Gate runs the authenticate -> authorize pipeline in front of the catalog.
// It is stateless; tokens are proven by signature and expiry alone.
type Gate struct {
	tokens *JWTService
}

// NewGate creates a gate backed by the token service.
func NewGate(tokens *JWTService) *Gate {
	return &Gate{tokens: tokens}
}

func checksFor(req Requirement) []check {
	checks := []check{authenticate}
	if req == RequireAdmin {
		checks = append(checks, authorizeAdmin)
	}
	return checks
}

// Evaluate runs the checks for req against a raw token and stops at the
// first failure.
func (g *Gate) Evaluate(token string, req Requirement) Decision {
	return g.run(&evaluation{token: token}, req)
}

// Resume runs the checks for req starting from an identity that an earlier
// Evaluate produced. A nil identity fails authentication.
func (g *Gate) Resume(identity *Identity, req Requirement) Decision {
	return g.run(&evaluation{identity: identity}, req)
}

func (g *Gate) run(ev *evaluation, req Requirement) Decision {
	for _, c := range checksFor(req) {
		if err := c(g, ev); err != nil {
			return Decision{Err: err}
		}
	}
	return Decision{Identity: ev.identity}
}

func authenticate(g *Gate, ev *evaluation) error {
	if ev.identity != nil {
		return nil
	}

	token := strings.TrimSpace(ev.token)
	if token == "" {
		return errors.ErrUnauthenticated
	}

	claims, err := g.tokens.ValidateToken(token)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrUnauthenticated, err)
	}

	id, err := uuid.Parse(claims.AccountID)
	if err != nil {
		return fmt.Errorf("%w: malformed account id", errors.ErrUnauthenticated)
	}

	ev.identity = &Identity{
		AccountID: id,
		Email:     claims.Email,
		IsAdmin:   claims.IsAdmin,
	}
	return nil
}

func authorizeAdmin(_ *Gate, ev *evaluation) error {
	if !ev.identity.IsAdmin {
		return errors.ErrForbidden
	}
	return nil
}
