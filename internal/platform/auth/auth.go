// Package auth implements the clinic's standalone staff authentication:
// a configured credential store, HS256 session tokens, and echo middleware
// that puts the authenticated actor into the request context.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Staff roles. Named physician accounts authenticate individually but carry
// the medecins role.
const (
	RolePhysician    = "medecins"
	RoleNurse        = "infirmiers"
	RoleReceptionist = "receptionistes"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// Claims is the JWT payload issued at login.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator verifies staff credentials and issues session tokens.
type Authenticator struct {
	credentials map[string]string
	physicians  map[string]bool
	secret      []byte
	ttl         time.Duration
}

func NewAuthenticator(credentials map[string]string, physicianAccounts []string, secret string, ttl time.Duration) *Authenticator {
	physicians := make(map[string]bool, len(physicianAccounts))
	for _, name := range physicianAccounts {
		physicians[name] = true
	}
	return &Authenticator{
		credentials: credentials,
		physicians:  physicians,
		secret:      []byte(secret),
		ttl:         ttl,
	}
}

// roleFor maps an account name to its role: named physicians collapse to
// medecins, role accounts are their own role.
func (a *Authenticator) roleFor(username string) string {
	if a.physicians[username] {
		return RolePhysician
	}
	return username
}

// Login checks the supplied credentials and returns a signed session token
// plus the resolved role.
func (a *Authenticator) Login(username, password string) (token, role string, err error) {
	stored, ok := a.credentials[username]
	if !ok || stored == "" || stored != password {
		return "", "", ErrInvalidCredentials
	}

	role = a.roleFor(username)
	now := time.Now()
	claims := &Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign token: %w", err)
	}
	return token, role, nil
}

// Verify parses and validates a session token.
func (a *Authenticator) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

type contextKey string

const actorKey contextKey = "actor"

// Actor identifies the authenticated staff member for the current request.
type Actor struct {
	Username string
	Role     string
}

// DisplayName renders the account name the way staff see it, with the
// underscores from the credential store turned back into spaces.
func (a Actor) DisplayName() string {
	out := make([]rune, 0, len(a.Username))
	for _, r := range a.Username {
		if r == '_' {
			r = ' '
		}
		out = append(out, r)
	}
	return string(out)
}

// WithActor returns a context carrying the authenticated actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext retrieves the authenticated actor; the zero Actor means
// the request was not authenticated (development mode).
func ActorFromContext(ctx context.Context) Actor {
	actor, _ := ctx.Value(actorKey).(Actor)
	return actor
}
