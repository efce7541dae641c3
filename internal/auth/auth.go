// Package auth guards the admin endpoints with the configured credential
// pair. A successful login yields a signed bearer token; whether admin routes
// require it is a configuration switch.
package auth

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/backpack-city/backpack-api/internal/config"
	"github.com/danielgtaylor/huma/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	TokenDuration = 12 * time.Hour
	adminSubject  = "admin"
)

type AuthHandler struct {
	cfg    *config.Config
	logger *zap.Logger
}

func NewAuthHandler(cfg *config.Config, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{cfg: cfg, logger: logger}
}

type LoginRequest struct {
	Body struct {
		_ struct{} `json:"-" additionalProperties:"true"`

		Username string `json:"username" doc:"Admin username"`
		Password string `json:"password" doc:"Admin password"`
	}
}

type LoginResponse struct {
	Body struct {
		Success bool   `json:"success"`
		Token   string `json:"token,omitempty"`
	}
}

func (h *AuthHandler) HandleLogin(ctx context.Context, input *LoginRequest) (*LoginResponse, error) {
	if !h.checkCredentials(input.Body.Username, input.Body.Password) {
		h.logger.Info("admin login failed", zap.String("username", input.Body.Username))
		return nil, huma.Error401Unauthorized("Invalid credentials")
	}

	res := &LoginResponse{}
	res.Body.Success = true

	if h.cfg.JWTSecret != "" {
		token, err := h.GenerateToken()
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to generate token")
		}
		res.Body.Token = token
	}

	h.logger.Info("admin login succeeded", zap.String("username", input.Body.Username))
	return res, nil
}

// checkCredentials compares against the configured pair. An empty password
// in configuration disables login entirely.
func (h *AuthHandler) checkCredentials(username, password string) bool {
	if h.cfg.AdminPassword == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(h.cfg.AdminUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(h.cfg.AdminPassword)) == 1
	return userOK && passOK
}

func (h *AuthHandler) GenerateToken() (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenDuration)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}
