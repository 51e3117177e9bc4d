package http

import (
	nethttp "net/http"
	"time"

	"github.com/Miraines/MoonyAndStarry/session-auth/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/adapters/transport/http/middleware"
	appsvc "github.com/Miraines/MoonyAndStarry/session-auth/internal/app/auth/service"
	authErrors "github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/errors"
	lg "github.com/Miraines/MoonyAndStarry/session-auth/internal/infra/log"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/infra/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	RefreshCookie = "jwt"

	MsgUserCreated    = "User created."
	MsgEmailTaken     = "Email has already been registered."
	MsgInternalFailed = "Internal server error."
)

type CookieOptions struct {
	Domain   string
	Secure   bool
	SameSite nethttp.SameSite
}

type Handler struct {
	svc     appsvc.Service
	cookie  CookieOptions
	log     *zap.Logger
	metrics metrics.Recorder
}

func NewHandler(svc appsvc.Service, cookie CookieOptions, log *zap.Logger, rec metrics.Recorder) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Handler{svc: svc, cookie: cookie, log: log, metrics: rec}
}

func (h *Handler) Register(c *gin.Context) {
	var body dto.RegisterDTO
	// an undecodable body is treated like missing fields
	_ = c.ShouldBindJSON(&body)

	err := h.svc.Register(c.Request.Context(), body)
	h.metrics.RecordAuthEvent("register", appsvc.Outcome(err))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.log.Info("/auth/register", lg.Email(body.Email))
	c.JSON(nethttp.StatusCreated, dto.MessageResponse{Message: MsgUserCreated})
}

func (h *Handler) Login(c *gin.Context) {
	var body dto.LoginDTO
	_ = c.ShouldBindJSON(&body)

	sess, err := h.svc.Login(c.Request.Context(), body)
	h.metrics.RecordAuthEvent("login", appsvc.Outcome(err))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.log.Info("/auth/login", lg.Email(sess.Email))

	h.setRefreshCookie(c, sess.RefreshToken, sess.RefreshTTL)
	c.JSON(nethttp.StatusOK, dto.AccessTokenResponse{AccessToken: sess.AccessToken})
}

func (h *Handler) Refresh(c *gin.Context) {
	token, _ := c.Cookie(RefreshCookie)

	grant, err := h.svc.Refresh(c.Request.Context(), token)
	h.metrics.RecordAuthEvent("refresh", appsvc.Outcome(err))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.log.Debug("/auth/refresh", lg.Email(grant.Email))
	c.JSON(nethttp.StatusOK, dto.AccessTokenResponse{AccessToken: grant.AccessToken})
}

func (h *Handler) Logout(c *gin.Context) {
	token, cookieErr := c.Cookie(RefreshCookie)

	err := h.svc.Logout(c.Request.Context(), token)
	h.metrics.RecordAuthEvent("logout", appsvc.Outcome(err))
	if err != nil {
		h.handleError(c, err)
		return
	}
	if cookieErr == nil && token != "" {
		h.setRefreshCookie(c, "", -1)
	}
	c.Status(nethttp.StatusNoContent)
}

func (h *Handler) Me(c *gin.Context) {
	email, ok := middleware.EmailFromContext(c.Request.Context())
	if !ok {
		c.AbortWithStatus(nethttp.StatusUnauthorized)
		return
	}
	c.JSON(nethttp.StatusOK, dto.MeResponse{Email: email})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(nethttp.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
}

func (h *Handler) NotFound(c *gin.Context) {
	h.log.Warn("route not found",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
	)
	c.AbortWithStatus(nethttp.StatusNotFound)
}

// setRefreshCookie writes the refresh cookie; a negative ttl deletes it.
func (h *Handler) setRefreshCookie(c *gin.Context, value string, ttl time.Duration) {
	maxAge := -1
	if ttl > 0 {
		maxAge = int(ttl.Seconds())
	}
	c.SetSameSite(h.cookie.SameSite)
	c.SetCookie(RefreshCookie, value, maxAge, "/", h.cookie.Domain, h.cookie.Secure, true)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case authErrors.IsInvalidArgument(err):
		c.JSON(nethttp.StatusBadRequest, dto.MessageResponse{Message: appsvc.MsgCredentialsRequired})
	case authErrors.IsAlreadyExists(err):
		c.JSON(nethttp.StatusConflict, dto.MessageResponse{Message: MsgEmailTaken})
	case authErrors.IsInvalidCredentials(err), authErrors.IsUnauthorized(err):
		c.Status(nethttp.StatusUnauthorized)
	case authErrors.IsForbidden(err), authErrors.IsInvalidToken(err):
		c.Status(nethttp.StatusForbidden)
	case authErrors.IsMissingSecret(err):
		h.log.Error("token signing secret is not configured", zap.Error(err))
		c.AbortWithStatus(nethttp.StatusInternalServerError)
	default:
		_ = c.Error(err)
		c.JSON(nethttp.StatusInternalServerError, dto.MessageResponse{Message: MsgInternalFailed})
	}
}
