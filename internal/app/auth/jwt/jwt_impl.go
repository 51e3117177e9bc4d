package jwt

import (
	"errors"
	"time"

	customErrors "github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/errors"
	jwt2 "github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/jwt"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultAccessTTL  = 30 * time.Minute
	DefaultRefreshTTL = 24 * time.Hour
)

type Options struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	Leeway     time.Duration
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

type JwtUtilImpl struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	leeway     time.Duration
	now        func() time.Time
}

// NewJWTUtil fails with ErrMissingSecret when no signing secret is given;
// callers treat that as a startup failure.
func NewJWTUtil(opts Options) (*JwtUtilImpl, error) {
	if len(opts.Secret) == 0 {
		return nil, customErrors.ErrMissingSecret
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = DefaultAccessTTL
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = DefaultRefreshTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	secret := make([]byte, len(opts.Secret))
	copy(secret, opts.Secret)

	return &JwtUtilImpl{
		secret:     secret,
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
		issuer:     opts.Issuer,
		leeway:     opts.Leeway,
		now:        opts.Now,
	}, nil
}

func (j *JwtUtilImpl) TTL(kind jwt2.Kind) time.Duration {
	if kind == jwt2.KindRefresh {
		return j.refreshTTL
	}
	return j.accessTTL
}

func (j *JwtUtilImpl) Issue(email string, kind jwt2.Kind) (string, jwt2.Claims, error) {
	if len(j.secret) == 0 {
		return "", jwt2.Claims{}, customErrors.ErrMissingSecret
	}
	if kind != jwt2.KindAccess && kind != jwt2.KindRefresh {
		return "", jwt2.Claims{}, customErrors.NewInvalidArgument("unknown token kind")
	}

	now := j.now().Truncate(time.Second)
	claims := jwt2.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.TTL(kind))),
			ID:        uuid.NewString(),
		},
		Kind: kind,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", jwt2.Claims{}, customErrors.WrapInternal(err, "sign "+string(kind)+" token")
	}

	return signed, claims, nil
}

func (j *JwtUtilImpl) Verify(raw string, kind jwt2.Kind) (jwt2.Claims, error) {
	if len(j.secret) == 0 {
		return jwt2.Claims{}, customErrors.ErrMissingSecret
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(j.leeway),
		jwt.WithTimeFunc(j.now),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	claims := &jwt2.Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, opts...)

	switch {
	case err == nil && token.Valid:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return jwt2.Claims{}, customErrors.ErrTokenSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return jwt2.Claims{}, customErrors.ErrTokenExpired
	default:
		return jwt2.Claims{}, customErrors.ErrTokenMalformed
	}

	if claims.Kind != kind || claims.Subject == "" {
		return jwt2.Claims{}, customErrors.ErrTokenMalformed
	}

	return *claims, nil
}
