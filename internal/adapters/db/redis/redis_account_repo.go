package redis

import (
	"context"
	"errors"
	"time"

	customErrors "github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// swapRefreshToken replaces the account's refresh token and its index entry
// in one step; the last caller wins. An empty ARGV[1] clears the token.
// Returns 0 when the account does not exist.
var swapRefreshToken = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
local old = redis.call('HGET', KEYS[1], 'refresh_token')
if old then
  redis.call('DEL', ARGV[4] .. old)
end
if ARGV[1] ~= '' then
  redis.call('HSET', KEYS[1], 'refresh_token', ARGV[1])
  redis.call('SET', ARGV[4] .. ARGV[1], ARGV[2])
else
  redis.call('HDEL', KEYS[1], 'refresh_token')
end
redis.call('HSET', KEYS[1], 'updated_at', ARGV[3])
return 1
`)

// RedisAccountRepo keeps each account in a hash under "account:<email>" and
// indexes the current refresh token as "refresh:<token>" -> email.
type RedisAccountRepo struct {
	client *redis.Client
	prefix string
}

func NewRedisAccountRepo(client *redis.Client, prefix string) *RedisAccountRepo {
	return &RedisAccountRepo{
		client: client,
		prefix: prefix,
	}
}

func (r *RedisAccountRepo) accountKey(email string) string {
	return r.prefix + "account:" + email
}

func (r *RedisAccountRepo) refreshKey(token string) string {
	return r.prefix + "refresh:" + token
}

func (r *RedisAccountRepo) CreateAccount(ctx context.Context, email, passwordHash string) (model.Account, error) {
	now := time.Now().UTC()
	acc := model.Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	key := r.accountKey(email)

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return customErrors.ErrAlreadyExists
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key,
				"id", acc.ID.String(),
				"email", acc.Email,
				"password_hash", acc.PasswordHash,
				"created_at", now.Format(time.RFC3339Nano),
				"updated_at", now.Format(time.RFC3339Nano),
			)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		return acc, nil
	case errors.Is(err, customErrors.ErrAlreadyExists), errors.Is(err, redis.TxFailedErr):
		// a failed watch on a missing key means someone created it first
		return model.Account{}, customErrors.ErrAlreadyExists
	default:
		return model.Account{}, customErrors.WrapInternal(err, "CreateAccount")
	}
}

func (r *RedisAccountRepo) GetAccountByEmail(ctx context.Context, email string) (model.Account, error) {
	vals, err := r.client.HGetAll(ctx, r.accountKey(email)).Result()
	if err != nil {
		return model.Account{}, customErrors.WrapInternal(err, "GetAccountByEmail")
	}
	if len(vals) == 0 {
		return model.Account{}, customErrors.ErrNotFound
	}
	acc, err := decodeAccount(vals)
	if err != nil {
		return model.Account{}, customErrors.WrapInternal(err, "GetAccountByEmail")
	}
	return acc, nil
}

func (r *RedisAccountRepo) GetAccountByRefreshToken(ctx context.Context, token string) (model.Account, error) {
	if token == "" {
		return model.Account{}, customErrors.ErrNotFound
	}
	email, err := r.client.Get(ctx, r.refreshKey(token)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return model.Account{}, customErrors.ErrNotFound
	case err != nil:
		return model.Account{}, customErrors.WrapInternal(err, "GetAccountByRefreshToken")
	}

	acc, err := r.GetAccountByEmail(ctx, email)
	if err != nil {
		return model.Account{}, err
	}
	// the index may lag a concurrent overwrite; the hash is authoritative
	if !acc.HasRefreshToken(token) {
		return model.Account{}, customErrors.ErrNotFound
	}
	return acc, nil
}

func (r *RedisAccountRepo) UpdateRefreshToken(ctx context.Context, email string, token *string) error {
	next := ""
	if token != nil {
		next = *token
	}

	n, err := swapRefreshToken.Run(ctx, r.client,
		[]string{r.accountKey(email)},
		next,
		email,
		time.Now().UTC().Format(time.RFC3339Nano),
		r.refreshKey(""),
	).Int()
	if err != nil {
		return customErrors.WrapInternal(err, "UpdateRefreshToken")
	}
	if n == 0 {
		return customErrors.ErrNotFound
	}
	return nil
}

func decodeAccount(vals map[string]string) (model.Account, error) {
	id, err := uuid.Parse(vals["id"])
	if err != nil {
		return model.Account{}, err
	}
	acc := model.Account{
		ID:           id,
		Email:        vals["email"],
		PasswordHash: vals["password_hash"],
	}
	if tok, ok := vals["refresh_token"]; ok && tok != "" {
		acc.RefreshToken = &tok
	}
	acc.CreatedAt, _ = time.Parse(time.RFC3339Nano, vals["created_at"])
	acc.UpdatedAt, _ = time.Parse(time.RFC3339Nano, vals["updated_at"])
	return acc, nil
}
