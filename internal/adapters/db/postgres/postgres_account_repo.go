package postgres

import (
	"context"
	"errors"
	"time"

	customErrors "github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/model"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type PostgresAccountRepo struct {
	db *gorm.DB
}

func NewPostgresAccountRepo(db *gorm.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

// Open connects to dsn with driver errors translated into gorm sentinels.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

func (p *PostgresAccountRepo) CreateAccount(ctx context.Context, email, passwordHash string) (model.Account, error) {
	acc := model.Account{ID: uuid.New(), Email: email, PasswordHash: passwordHash}
	if err := p.db.WithContext(ctx).Create(&acc).Error; err != nil {
		if isUniqueViolation(err) {
			return model.Account{}, customErrors.ErrAlreadyExists
		}
		return model.Account{}, customErrors.WrapInternal(err, "CreateAccount")
	}
	return acc, nil
}

func (p *PostgresAccountRepo) GetAccountByEmail(ctx context.Context, email string) (model.Account, error) {
	var acc model.Account
	res := p.db.WithContext(ctx).Where("email = ?", email).First(&acc)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.Account{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.Account{}, customErrors.WrapInternal(err, "GetAccountByEmail")
	}

	return acc, nil
}

func (p *PostgresAccountRepo) GetAccountByRefreshToken(ctx context.Context, token string) (model.Account, error) {
	if token == "" {
		return model.Account{}, customErrors.ErrNotFound
	}
	var acc model.Account
	res := p.db.WithContext(ctx).Where("refresh_token = ?", token).First(&acc)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.Account{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.Account{}, customErrors.WrapInternal(err, "GetAccountByRefreshToken")
	}

	return acc, nil
}

func (p *PostgresAccountRepo) UpdateRefreshToken(ctx context.Context, email string, token *string) error {
	res := p.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("email = ?", email).
		Update("refresh_token", token)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "UpdateRefreshToken")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}

	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
