package repo

import (
	"context"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/model"
)

// AccountRepo is the credential store. Lookups return errors.ErrNotFound when
// no account matches; CreateAccount returns errors.ErrAlreadyExists on a
// duplicate email.
type AccountRepo interface {
	GetAccountByEmail(ctx context.Context, email string) (model.Account, error)

	GetAccountByRefreshToken(ctx context.Context, token string) (model.Account, error)

	CreateAccount(ctx context.Context, email, passwordHash string) (model.Account, error)

	// UpdateRefreshToken overwrites the stored token; nil clears it.
	UpdateRefreshToken(ctx context.Context, email string, token *string) error
}
