package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Miraines/MoonyAndStarry/session-auth/internal/adapters/transport/http/dto"
	customErrors "github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/jwt"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/model"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/password"
	repo "github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/repo"
	lg "github.com/Miraines/MoonyAndStarry/session-auth/internal/infra/log"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const MsgCredentialsRequired = "Email and password are required."

type Service interface {
	Register(context.Context, dto.RegisterDTO) error
	Login(context.Context, dto.LoginDTO) (model.Session, error)
	Refresh(ctx context.Context, refreshToken string) (model.AccessGrant, error)
	Logout(ctx context.Context, refreshToken string) error
	Authenticate(ctx context.Context, accessToken string) (model.Account, error)
}

type Options struct {
	// StoreTimeout bounds every credential store call; zero disables the bound.
	StoreTimeout time.Duration
	Logger       *zap.Logger
	Tracer       trace.Tracer
}

type authService struct {
	accounts     repo.AccountRepo
	hasher       password.Hasher
	jwtUtil      jwt.TokenIssuer
	v            *validator.Validate
	storeTimeout time.Duration
	log          *zap.Logger
	tracer       trace.Tracer

	dummyOnce sync.Once
	dummyHash string
}

func New(
	ar repo.AccountRepo,
	h password.Hasher,
	jm jwt.TokenIssuer,
	v *validator.Validate,
	opts Options,
) Service {
	if v == nil {
		v = validator.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("github.com/Miraines/MoonyAndStarry/session-auth/service")
	}
	return &authService{
		accounts:     ar,
		hasher:       h,
		jwtUtil:      jm,
		v:            v,
		storeTimeout: opts.StoreTimeout,
		log:          opts.Logger,
		tracer:       opts.Tracer,
	}
}

func (a *authService) Register(ctx context.Context, in dto.RegisterDTO) (err error) {
	ctx, end := a.span(ctx, "Register")
	defer end(&err)

	if err := a.v.Struct(in); err != nil {
		return customErrors.NewInvalidArgument(MsgCredentialsRequired)
	}

	sctx, cancel := a.storeCtx(ctx)
	_, err = a.accounts.GetAccountByEmail(sctx, in.Email)
	cancel()
	switch {
	case err == nil:
		return customErrors.ErrAlreadyExists
	case !customErrors.IsNotFound(err):
		return customErrors.WrapInternal(err, "GetAccountByEmail")
	}

	passwordHash, err := a.hasher.Hash(in.Password)
	if err != nil {
		return customErrors.WrapInternal(err, "Register")
	}

	sctx, cancel = a.storeCtx(ctx)
	defer cancel()
	if _, err = a.accounts.CreateAccount(sctx, in.Email, passwordHash); err != nil {
		if customErrors.IsAlreadyExists(err) {
			return customErrors.ErrAlreadyExists
		}
		return customErrors.WrapInternal(err, "CreateAccount")
	}
	return nil
}

func (a *authService) Login(ctx context.Context, in dto.LoginDTO) (_ model.Session, err error) {
	ctx, end := a.span(ctx, "Login")
	defer end(&err)

	if err := a.v.Struct(in); err != nil {
		return model.Session{}, customErrors.NewInvalidArgument(MsgCredentialsRequired)
	}

	sctx, cancel := a.storeCtx(ctx)
	acc, err := a.accounts.GetAccountByEmail(sctx, in.Email)
	cancel()
	switch {
	case customErrors.IsNotFound(err):
		// burn the same hashing time as a real check
		_, _ = a.hasher.Verify(in.Password, a.dummy())
		return model.Session{}, customErrors.ErrInvalidCredentials
	case err != nil:
		return model.Session{}, customErrors.WrapInternal(err, "GetAccountByEmail")
	}

	ok, err := a.hasher.Verify(in.Password, acc.PasswordHash)
	if err != nil {
		return model.Session{}, customErrors.WrapInternal(err, "Login")
	}
	if !ok {
		return model.Session{}, customErrors.ErrInvalidCredentials
	}
	if a.hasher.NeedsUpgrade(acc.PasswordHash) {
		a.log.Info("account uses a legacy password hash", lg.Email(acc.Email))
	}

	at, _, err := a.jwtUtil.Issue(acc.Email, jwt.KindAccess)
	if err != nil {
		return model.Session{}, err
	}
	rt, _, err := a.jwtUtil.Issue(acc.Email, jwt.KindRefresh)
	if err != nil {
		return model.Session{}, err
	}

	sctx, cancel = a.storeCtx(ctx)
	defer cancel()
	if err = a.accounts.UpdateRefreshToken(sctx, acc.Email, &rt); err != nil {
		return model.Session{}, customErrors.WrapInternal(err, "StoreRefresh")
	}

	return model.Session{
		Email:        acc.Email,
		AccessToken:  at,
		RefreshToken: rt,
		RefreshTTL:   a.jwtUtil.TTL(jwt.KindRefresh),
	}, nil
}

func (a *authService) Refresh(ctx context.Context, refreshToken string) (_ model.AccessGrant, err error) {
	ctx, end := a.span(ctx, "Refresh")
	defer end(&err)

	if refreshToken == "" {
		return model.AccessGrant{}, customErrors.ErrUnauthorized
	}

	sctx, cancel := a.storeCtx(ctx)
	acc, err := a.accounts.GetAccountByRefreshToken(sctx, refreshToken)
	cancel()
	switch {
	case customErrors.IsNotFound(err):
		return model.AccessGrant{}, customErrors.ErrForbidden
	case err != nil:
		return model.AccessGrant{}, customErrors.WrapInternal(err, "GetAccountByRefreshToken")
	}

	claims, err := a.jwtUtil.Verify(refreshToken, jwt.KindRefresh)
	if err != nil {
		if customErrors.IsMissingSecret(err) {
			return model.AccessGrant{}, err
		}
		return model.AccessGrant{}, fmt.Errorf("%w: %w", customErrors.ErrForbidden, err)
	}
	if claims.Email() != acc.Email {
		return model.AccessGrant{}, customErrors.ErrForbidden
	}

	at, _, err := a.jwtUtil.Issue(acc.Email, jwt.KindAccess)
	if err != nil {
		return model.AccessGrant{}, err
	}

	return model.AccessGrant{
		Email:       acc.Email,
		AccessToken: at,
	}, nil
}

func (a *authService) Logout(ctx context.Context, refreshToken string) (err error) {
	ctx, end := a.span(ctx, "Logout")
	defer end(&err)

	if refreshToken == "" {
		return nil
	}

	sctx, cancel := a.storeCtx(ctx)
	acc, err := a.accounts.GetAccountByRefreshToken(sctx, refreshToken)
	cancel()
	switch {
	case customErrors.IsNotFound(err):
		return nil
	case err != nil:
		return customErrors.WrapInternal(err, "GetAccountByRefreshToken")
	}

	sctx, cancel = a.storeCtx(ctx)
	defer cancel()
	if err := a.accounts.UpdateRefreshToken(sctx, acc.Email, nil); err != nil && !customErrors.IsNotFound(err) {
		return customErrors.WrapInternal(err, "Logout")
	}
	return nil
}

func (a *authService) Authenticate(ctx context.Context, accessToken string) (_ model.Account, err error) {
	ctx, end := a.span(ctx, "Authenticate")
	defer end(&err)

	if accessToken == "" {
		return model.Account{}, customErrors.ErrUnauthorized
	}

	claims, err := a.jwtUtil.Verify(accessToken, jwt.KindAccess)
	if err != nil {
		if customErrors.IsMissingSecret(err) {
			return model.Account{}, err
		}
		return model.Account{}, fmt.Errorf("%w: %w", customErrors.ErrForbidden, err)
	}

	sctx, cancel := a.storeCtx(ctx)
	defer cancel()
	acc, err := a.accounts.GetAccountByEmail(sctx, claims.Email())
	switch {
	case customErrors.IsNotFound(err):
		return model.Account{}, customErrors.ErrForbidden
	case err != nil:
		return model.Account{}, customErrors.WrapInternal(err, "GetAccountByEmail")
	}
	return acc, nil
}

func (a *authService) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.storeTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.storeTimeout)
}

func (a *authService) span(ctx context.Context, op string) (context.Context, func(*error)) {
	ctx, span := a.tracer.Start(ctx, "auth."+op)
	return ctx, func(errp *error) {
		if err := *errp; err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, Outcome(err))
		}
		span.End()
	}
}

func (a *authService) dummy() string {
	a.dummyOnce.Do(func() {
		a.dummyHash, _ = a.hasher.Hash("dummy-password-for-timing")
	})
	return a.dummyHash
}

// Outcome names the class of err for logs and metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case customErrors.IsInvalidArgument(err):
		return "invalid_argument"
	case customErrors.IsAlreadyExists(err):
		return "conflict"
	case customErrors.IsInvalidCredentials(err), customErrors.IsUnauthorized(err):
		return "unauthorized"
	case customErrors.IsForbidden(err), customErrors.IsInvalidToken(err):
		return "forbidden"
	case customErrors.IsMissingSecret(err):
		return "misconfigured"
	default:
		return "internal"
	}
}
