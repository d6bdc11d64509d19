package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/textchat-relay/internal/users"
)

// UserHandlers provides HTTP handlers for user operations.
type UserHandlers struct {
	svc *users.Service
	log *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(svc *users.Service, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		svc: svc,
		log: logger,
	}
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// ChangePasswordRequest is the body of PUT /users.
type ChangePasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// GetUser looks a user up by name.
// GET /users?username=name
func (h *UserHandlers) GetUser(c *gin.Context) {
	username := strings.TrimSpace(c.Query("username"))
	if username == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "username is required"})
		return
	}

	user, err := h.svc.GetUser(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error().Err(err).Str("username", username).Msg("failed to get user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, UserResponse{ID: user.ID, Username: user.Username})
}

// ChangePassword replaces the caller's password.
// PUT /users
func (h *UserHandlers) ChangePassword(c *gin.Context) {
	username, ok := h.username(c)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), username, req.Password); err != nil {
		switch {
		case errors.Is(err, users.ErrInvalidPassword):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "password must be at least 6 characters"})
		case errors.Is(err, users.ErrUserNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
		default:
			h.log.Error().Err(err).Str("username", username).Msg("failed to change password")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.log.Info().Str("username", username).Msg("password changed")
	c.Status(http.StatusNoContent)
}

// DeleteUser removes the caller's account.
// DELETE /users
func (h *UserHandlers) DeleteUser(c *gin.Context) {
	username, ok := h.username(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteUser(c.Request.Context(), username); err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error().Err(err).Str("username", username).Msg("failed to delete user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("username", username).Msg("user deleted")
	c.Status(http.StatusNoContent)
}

func (h *UserHandlers) username(c *gin.Context) (string, bool) {
	value, exists := c.Get(ContextKeyUsername)
	if !exists {
		h.log.Error().Msg("username not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return "", false
	}

	username, ok := value.(string)
	if !ok {
		h.log.Error().Msg("invalid username type in context")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return "", false
	}
	return username, true
}
