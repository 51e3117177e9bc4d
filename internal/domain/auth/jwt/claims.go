package jwt

import (
	"github.com/golang-jwt/jwt/v5"
	"time"
)

type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims is the only payload the service signs. Subject carries the account email.
type Claims struct {
	jwt.RegisteredClaims
	Kind Kind `json:"kind"`
}

func (c Claims) Email() string {
	return c.Subject
}

type TokenIssuer interface {
	Issue(email string, kind Kind) (token string, claims Claims, err error)
	Verify(token string, kind Kind) (claims Claims, err error)
	TTL(kind Kind) time.Duration
}
