package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/auth"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/models"
)

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name" binding:"max=128"`
}

type loginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type resetPasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

type profileRequest struct {
	Username *string `json:"username" binding:"omitempty,min=3,max=64"`
	Email    *string `json:"email" binding:"omitempty,email"`
	FullName *string `json:"full_name" binding:"omitempty,max=128"`
}

func (h *Handler) handleRegister(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Register(c.Request.Context(), auth.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		h.writeAuthError(c, "failed to register user", err)
		return
	}

	c.JSON(http.StatusCreated, newAuthResponse(result))
}

func (h *Handler) handleLogin(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), auth.LoginInput{
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		h.writeAuthError(c, "failed to login", err)
		return
	}

	c.JSON(http.StatusOK, newAuthResponse(result))
}

func (h *Handler) handleLogout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), c.GetString(ctxToken)); err != nil {
		h.writeAuthError(c, "failed to logout", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

// handleMe falls back to the token claims for users that only exist in the identity provider.
func (h *Handler) handleMe(c *gin.Context) {
	user, err := h.authService.Me(c.Request.Context(), userID(c))
	if errors.Is(err, auth.ErrUserNotFound) {
		c.JSON(http.StatusOK, gin.H{"user": gin.H{
			"id":    userID(c),
			"email": c.GetString(ctxUserEmail),
		}})
		return
	}
	if err != nil {
		h.writeAuthError(c, "failed to load user", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userResponse(*user)})
}

func (h *Handler) handleResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	err := h.authService.ResetPassword(c.Request.Context(), auth.ResetPasswordInput{
		UserID:          userID(c),
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		h.writeAuthError(c, "failed to reset password", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "password_updated"})
}

func (h *Handler) handleUpdateProfile(c *gin.Context) {
	var req profileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), userID(c), auth.ProfileInput{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
	})
	if err != nil {
		h.writeAuthError(c, "failed to update profile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userResponse(*user)})
}

func (h *Handler) writeAuthError(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, auth.ErrUsernameRequired), errors.Is(err, auth.ErrPasswordTooWeak), errors.Is(err, auth.ErrInvalidEmail):
		writeError(c, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, auth.ErrUserExists), errors.Is(err, auth.ErrEmailExists):
		writeError(c, http.StatusConflict, err.Error(), err)
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenRevoked):
		writeError(c, http.StatusUnauthorized, err.Error(), err)
	case errors.Is(err, auth.ErrUserNotFound):
		writeError(c, http.StatusNotFound, err.Error(), err)
	default:
		h.logger.Errorw(message, "error", err)
		writeError(c, http.StatusInternalServerError, message, err)
	}
}

func newAuthResponse(result *auth.AuthResult) gin.H {
	return gin.H{
		"token":     result.Token,
		"expiresAt": result.ExpiresAt.Format(time.RFC3339),
		"user":      userResponse(result.User),
	}
}

func userResponse(user models.User) gin.H {
	return gin.H{
		"id":        user.ID,
		"username":  user.Username,
		"email":     user.Email,
		"full_name": user.FullName,
		"createdAt": user.CreatedAt.Format(time.RFC3339),
		"updatedAt": user.UpdatedAt.Format(time.RFC3339),
	}
}
