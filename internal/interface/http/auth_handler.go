package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhub/config"
	"github.com/oksasatya/taskhub/internal/application"
	"github.com/oksasatya/taskhub/pkg/helpers"
	"github.com/oksasatya/taskhub/pkg/response"
)

// AuthHandler serves registration, the cookie session and the verify/reset flows.
type AuthHandler struct {
	Users   *application.UserService
	Cfg     *config.Config
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewAuthHandler(users *application.UserService, cfg *config.Config, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		Users:   users,
		Cfg:     cfg,
		Logger:  logger,
		Cookies: helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure),
	}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,pwd"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type resetInitRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetConfirmRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,pwd"`
}

// exposeLinks reports whether one-time links may be echoed in responses.
func (h *AuthHandler) exposeLinks() bool {
	return h.Cfg != nil && h.Cfg.Env == "development"
}

func tokenMeta(pair application.TokenPair) map[string]any {
	return map[string]any{
		"access_expires_at":  pair.AccessTokenExpiry,
		"refresh_expires_at": pair.RefreshTokenExpiry,
	}
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.Users.Register(c.Request.Context(), application.RegisterInput{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, u, "registered", nil)
}

// Login POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	u, pair, err := h.Users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, u, "login successful", tokenMeta(pair))
}

// Refresh POST /api/refresh rotates the pair using the refresh_token cookie.
func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie(helpers.RefreshCookie)
	if err != nil || refresh == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	pair, _, err := h.Users.Refresh(c.Request.Context(), refresh)
	if err != nil {
		response.Error[any](c, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, gin.H{"refreshed": true}, "token refreshed", tokenMeta(pair))
}

// Logout POST /api/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.Users.Logout(c.Request.Context(), c.GetString("userID")); err != nil && h.Logger != nil {
		h.Logger.WithError(err).Warn("drop session failed")
	}
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, gin.H{"logged_out": true}, "logged out", nil)
}

// VerifyInit POST /api/auth/verify/init
func (h *AuthHandler) VerifyInit(c *gin.Context) {
	link, already, err := h.Users.InitVerify(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	if already {
		response.Success(c, http.StatusOK, gin.H{"already_verified": true}, "already verified", nil)
		return
	}
	data := gin.H{"sent": true}
	if h.exposeLinks() {
		data["verify_link"] = link
	}
	response.Success(c, http.StatusOK, data, "verification email queued", nil)
}

// VerifyConfirm POST /api/auth/verify/confirm
func (h *AuthHandler) VerifyConfirm(c *gin.Context) {
	var req tokenRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Users.ConfirmVerify(c.Request.Context(), req.Token); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"verified": true}, "email verified", nil)
}

// ResetInit POST /api/auth/reset/init answers the same way for unknown emails.
func (h *AuthHandler) ResetInit(c *gin.Context) {
	var req resetInitRequest
	if !bindJSON(c, &req) {
		return
	}
	link, err := h.Users.InitReset(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	data := gin.H{"sent": true}
	if h.exposeLinks() && link != "" {
		data["reset_link"] = link
	}
	response.Success(c, http.StatusOK, data, "if the email exists, a reset link was sent", nil)
}

// ResetConfirm POST /api/auth/reset/confirm
func (h *AuthHandler) ResetConfirm(c *gin.Context) {
	var req resetConfirmRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Users.ConfirmReset(c.Request.Context(), req.Token, req.Password); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, gin.H{"reset": true}, "password updated", nil)
}
