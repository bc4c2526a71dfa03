package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-catalog/internal/authz"
	"github.com/iliyamo/game-catalog/internal/service"
)

// AuthHandler serves login, registration and the current identity.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(a *service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: a}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResp struct {
	Token     string    `json:"token"`
	UserID    uint64    `json:"userId"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"` // optional; ADMIN only when an admin registers the account
}

type registerResp struct {
	Message string `json:"message"`
	UserID  uint64 `json:"userId"`
}

// Login verifies credentials and returns a bearer token. Every credential
// failure produces the same 400 response.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.Auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loginResp{
		Token:     res.Token,
		UserID:    res.User.ID,
		TokenType: "Bearer",
		ExpiresAt: res.ExpiresAt,
	})
}

// Register creates an account and its empty profile.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Auth.Register(ctx, actor(c), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, registerResp{Message: "User registered successfully", UserID: u.ID})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	u := actor(c)
	if u == nil {
		return authz.ErrUnauthenticated
	}
	return c.JSON(http.StatusOK, toUser(u))
}
