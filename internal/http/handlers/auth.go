package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/authhub/internal/auth"
	"github.com/geocoder89/authhub/internal/cache"
	"github.com/geocoder89/authhub/internal/config"
	"github.com/geocoder89/authhub/internal/domain/user"
	"github.com/geocoder89/authhub/internal/http/middlewares"
	"github.com/geocoder89/authhub/internal/notifications"
	"github.com/geocoder89/authhub/internal/observability"
	"github.com/geocoder89/authhub/internal/security"
	"github.com/gin-gonic/gin"
)

// UserStore is the persistence capability set the credential manager
// needs: lookups by email/id/valid-token plus the two writes. The store
// must make ConsumeResetToken atomic per record (conditional update or
// equivalent) so concurrent consumes of one token cannot both win.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash, name string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByValidResetToken(ctx context.Context, token string, now time.Time) (user.User, error)
	SetResetToken(ctx context.Context, userID, token string, expiry time.Time) error
	ConsumeResetToken(ctx context.Context, token, newPasswordHash string, now time.Time) error
}

// AuthHandler owns the credential and token lifecycle. Everything it
// needs (secret-backed token manager, store, mailer, cost factor) is
// injected at construction; there are no package-level globals.
type AuthHandler struct {
	store    UserStore
	jwt      *auth.Manager
	notifier notifications.Notifier
	cfg      config.Config
	prom     *observability.Prom
	cache    cache.Cache
}

func NewAuthHandler(store UserStore, jwtManager *auth.Manager, notifier notifications.Notifier, cfg config.Config, prom *observability.Prom, c cache.Cache) *AuthHandler {
	return &AuthHandler{
		store:    store,
		jwt:      jwtManager,
		notifier: notifier,
		cfg:      cfg,
		prom:     prom,
		cache:    c,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword" binding:"required"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	hash, err := security.HashPassword(req.Password, h.cfg.BcryptCost)

	if err != nil {
		h.prom.ObserveAuth("register", "error")
		RespondInternal(ctx, "Could not create account")
		return
	}

	_, err = h.store.Create(cctx, req.Email, hash, req.Name)

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			h.prom.ObserveAuth("register", "rejected")
			RespondBadRequest(ctx, "conflict", "User already exists", nil)
			return
		}

		h.prom.ObserveAuth("register", "error")
		slog.Default().ErrorContext(ctx.Request.Context(), "register failed", "err", err)
		RespondInternal(ctx, "Could not create account")
		return
	}

	// No session token on register; the caller logs in separately.
	h.prom.ObserveAuth("register", "ok")
	ctx.JSON(http.StatusOK, gin.H{"message": "Account created successfully"})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}
	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	// Unknown email and wrong password must be indistinguishable, so
	// both paths fall through to the same response.
	foundUser, err := h.store.GetByEmail(cctx, req.Email)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			h.prom.ObserveAuth("login", "error")
			slog.Default().ErrorContext(ctx.Request.Context(), "login lookup failed", "err", err)
			RespondInternal(ctx, "Could not log in")
			return
		}

		h.respondInvalidCredentials(ctx)
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		h.respondInvalidCredentials(ctx)
		return
	}

	token, err := h.jwt.GenerateSessionToken(foundUser.ID)

	if err != nil {
		h.prom.ObserveAuth("login", "error")
		RespondInternal(ctx, "Could not generate token")
		return
	}

	h.prom.ObserveAuth("login", "ok")
	ctx.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  foundUser.Public(),
	})
}

func (h *AuthHandler) respondInvalidCredentials(ctx *gin.Context) {
	h.prom.ObserveAuth("login", "rejected")
	RespondBadRequest(ctx, "invalid_credentials", "Invalid credentials", nil)
}

func (h *AuthHandler) ForgotPassword(ctx *gin.Context) {
	var req ForgotPasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// DB write plus a provider call; give this one more room
	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	foundUser, err := h.store.GetByEmail(cctx, req.Email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// Reveals account existence. Kept as-is; see DESIGN.md.
			h.prom.ObserveAuth("reset_request", "rejected")
			RespondNotFound(ctx, "User not found")
			return
		}

		h.prom.ObserveAuth("reset_request", "error")
		slog.Default().ErrorContext(ctx.Request.Context(), "reset lookup failed", "err", err)
		RespondInternal(ctx, "Could not request password reset")
		return
	}

	token, err := security.NewResetToken()

	if err != nil {
		h.prom.ObserveAuth("reset_request", "error")
		RespondInternal(ctx, "Could not request password reset")
		return
	}

	expiry := time.Now().UTC().Add(h.cfg.ResetTokenTTL)

	err = h.store.SetResetToken(cctx, foundUser.ID, token, expiry)

	if err != nil {
		h.prom.ObserveAuth("reset_request", "error")
		slog.Default().ErrorContext(ctx.Request.Context(), "reset token persist failed", "err", err)
		RespondInternal(ctx, "Could not request password reset")
		return
	}

	resetLink := h.cfg.FrontendURL + "/reset-password/" + token

	err = h.notifier.SendPasswordReset(cctx, notifications.SendPasswordResetInput{
		Email:     foundUser.Email,
		Name:      foundUser.Name,
		ResetLink: resetLink,
		ValidFor:  formatValidity(h.cfg.ResetTokenTTL),
	})

	if err != nil {
		// The token stays persisted; only the delivery failed.
		h.prom.ObserveAuth("reset_request", "error")
		slog.Default().ErrorContext(ctx.Request.Context(), "reset email dispatch failed", "err", err)
		RespondError(ctx, http.StatusInternalServerError, "email_delivery_failed", "Email service failed", nil)
		return
	}

	// Never echo the token or the link back.
	h.prom.ObserveAuth("reset_request", "ok")
	ctx.JSON(http.StatusOK, gin.H{"message": "Reset email sent"})
}

func (h *AuthHandler) ResetPassword(ctx *gin.Context) {
	token := ctx.Param("token")

	var req ResetPasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	now := time.Now().UTC()

	// Cheap pre-check before paying for bcrypt. Wrong and expired
	// tokens get the same answer so tokens can't be enumerated.
	_, err := h.store.GetByValidResetToken(cctx, token, now)

	if err != nil {
		if errors.Is(err, user.ErrResetTokenInvalid) {
			h.respondResetTokenInvalid(ctx)
			return
		}

		h.prom.ObserveAuth("reset_consume", "error")
		slog.Default().ErrorContext(ctx.Request.Context(), "reset token lookup failed", "err", err)
		RespondInternal(ctx, "Could not reset password")
		return
	}

	hash, err := security.HashPassword(req.NewPassword, h.cfg.BcryptCost)

	if err != nil {
		h.prom.ObserveAuth("reset_consume", "error")
		RespondInternal(ctx, "Could not reset password")
		return
	}

	// Single conditional update: new hash in, both reset fields out.
	// A concurrent consume of the same token loses here.
	err = h.store.ConsumeResetToken(cctx, token, hash, now)

	if err != nil {
		if errors.Is(err, user.ErrResetTokenInvalid) {
			h.respondResetTokenInvalid(ctx)
			return
		}

		h.prom.ObserveAuth("reset_consume", "error")
		slog.Default().ErrorContext(ctx.Request.Context(), "reset consume failed", "err", err)
		RespondInternal(ctx, "Could not reset password")
		return
	}

	h.prom.ObserveAuth("reset_consume", "ok")
	ctx.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
}

func (h *AuthHandler) respondResetTokenInvalid(ctx *gin.Context) {
	h.prom.ObserveAuth("reset_consume", "rejected")
	RespondBadRequest(ctx, "invalid_or_expired_token", "Invalid or expired token", nil)
}

// Me verifies the bearer token itself (unlike the route guard it also
// re-checks the user still exists) and returns the public fields.
func (h *AuthHandler) Me(ctx *gin.Context) {
	raw, ok := middlewares.BearerToken(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "Missing or invalid Authorization header")
		return
	}

	claims, err := h.jwt.VerifySessionToken(raw)

	if err != nil {
		RespondUnAuthorized(ctx, "Invalid or expired token")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	if u, ok := h.cachedUser(cctx, claims.UserID); ok {
		ctx.JSON(http.StatusOK, u)
		return
	}

	foundUser, err := h.store.GetByID(cctx, claims.UserID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		slog.Default().ErrorContext(ctx.Request.Context(), "me lookup failed", "err", err)
		RespondInternal(ctx, "Could not load user")
		return
	}

	h.cacheUser(cctx, foundUser)
	ctx.JSON(http.StatusOK, foundUser)
}

func meCacheKey(userID string) string { return "me:" + userID }

func (h *AuthHandler) cachedUser(ctx context.Context, userID string) (user.User, bool) {
	if h.cache == nil {
		return user.User{}, false
	}

	raw, ok := h.cache.Get(ctx, meCacheKey(userID))

	if !ok {
		return user.User{}, false
	}

	var u user.User

	if err := json.Unmarshal(raw, &u); err != nil {
		h.cache.Delete(ctx, meCacheKey(userID))
		return user.User{}, false
	}

	return u, true
}

func (h *AuthHandler) cacheUser(ctx context.Context, u user.User) {
	if h.cache == nil {
		return
	}

	raw, err := json.Marshal(u)

	if err != nil {
		return
	}

	h.cache.Set(ctx, meCacheKey(u.ID), raw)
}

func formatValidity(d time.Duration) string {
	mins := int(d.Minutes())

	if mins <= 1 {
		return "1 minute"
	}

	return fmt.Sprintf("%d minutes", mins)
}
