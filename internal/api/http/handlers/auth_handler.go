package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workspace-service/internal/api/dto"
	"github.com/spec-kit/workspace-service/internal/auth"
	"github.com/spec-kit/workspace-service/internal/service"
	apperrors "github.com/spec-kit/workspace-service/pkg/util"
)

const refreshCookieName = "refreshToken"

// AuthHandler exposes the credential and session endpoints.
type AuthHandler struct {
	auth          *service.AuthService
	secureCookies bool
}

// NewAuthHandler constructs the handler. secureCookies should be true
// in any production-equivalent mode.
func NewAuthHandler(authService *service.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{auth: authService, secureCookies: secureCookies}
}

// Register handles POST /register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid request body")
	}

	user, pair, err := h.auth.Register(c.Context(), service.RegisterInput{
		UserName: req.UserName,
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	h.setRefreshCookie(c, pair.RefreshToken, pair.RefreshExpiresAt)
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "user registered and logged in successfully",
		"data": fiber.Map{
			"user":        dto.NewUserResponse(user),
			"accessToken": pair.AccessToken,
		},
	})
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid request body")
	}

	user, pair, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.setRefreshCookie(c, pair.RefreshToken, pair.RefreshExpiresAt)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "user logged in successfully",
		"data": fiber.Map{
			"user":        dto.NewUserResponse(user),
			"accessToken": pair.AccessToken,
		},
	})
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("unauthorized")
	}

	if err := h.auth.Logout(c.Context(), user.ID); err != nil {
		return err
	}

	h.clearRefreshCookie(c)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "user logged out successfully",
		"data":    fiber.Map{},
	})
}

// Refresh handles POST /refresh. Auth comes from the refresh cookie,
// not the Authorization header.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	pair, err := h.auth.Refresh(c.Context(), c.Cookies(refreshCookieName))
	if err != nil {
		return err
	}

	h.setRefreshCookie(c, pair.RefreshToken, pair.RefreshExpiresAt)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "access token refreshed",
		"data": fiber.Map{
			"accessToken": pair.AccessToken,
		},
	})
}

// Me handles GET /me: a pure read of the session identity.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("unauthorized")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "",
		"data": fiber.Map{
			"user": dto.NewUserResponse(user),
		},
	})
}

// ChangePassword handles PATCH /change-password.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("unauthorized")
	}

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid request body")
	}

	if err := h.auth.ChangePassword(c.Context(), user.ID, req.OldPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}

	h.clearRefreshCookie(c)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "password updated successfully, please login again",
		"data":    fiber.Map{},
	})
}

func (h *AuthHandler) setRefreshCookie(c *fiber.Ctx, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Expires:  expires,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}
