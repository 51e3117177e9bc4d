package middleware

import (
	"context"
	"net/http"
	"strings"

	customErrors "github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/model"
	lg "github.com/Miraines/MoonyAndStarry/session-auth/internal/infra/log"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (model.Account, error)
}

type emailKey struct{}

// EmailFromContext returns the account email attached by Bearer.
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailKey{}).(string)
	return email, ok && email != ""
}

func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, emailKey{}, email)
}

// Bearer guards protected routes with an "Authorization: Bearer <token>" header.
func Bearer(auth Authenticator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		acc, err := auth.Authenticate(c.Request.Context(), token)
		switch {
		case err == nil:
		case customErrors.IsMissingSecret(err):
			log.Error("access token check without signing secret", zap.Error(err))
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		case customErrors.IsUnauthorized(err):
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		case customErrors.IsForbidden(err), customErrors.IsInvalidToken(err):
			c.AbortWithStatus(http.StatusForbidden)
			return
		default:
			_ = c.Error(err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		log.Debug("bearer accepted", lg.Email(acc.Email))
		c.Request = c.Request.WithContext(WithEmail(c.Request.Context(), acc.Email))
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
