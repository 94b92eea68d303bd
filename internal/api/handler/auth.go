package handler

import (
	"errors"
	"net/http"
	"strings"

	"wantok/backend/internal/auth"
	"wantok/backend/internal/config"
	"wantok/backend/internal/models"
	"wantok/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const minPasswordLength = 6

type registerRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Country  string `json:"country"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account with the starting token balance and returns a session token.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.FullName == "" || req.Email == "" || req.Password == "" || req.Country == "" {
		fail(c, http.StatusBadRequest, "All fields are required")
		return
	}
	if len(req.Password) < minPasswordLength {
		fail(c, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.Users.GetUserByEmail(ctx, req.Email); err == nil {
		fail(c, http.StatusBadRequest, "Email already registered")
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		log.Error().Err(err).Msg("register: email lookup failed")
		fail(c, http.StatusInternalServerError, "Registration failed")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("register: hash password")
		fail(c, http.StatusInternalServerError, "Registration failed")
		return
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		Country:      req.Country,
		Tokens:       config.StartingTokens,
	}
	if err := h.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			fail(c, http.StatusBadRequest, "Email already registered")
			return
		}
		log.Error().Err(err).Msg("register: create user")
		fail(c, http.StatusInternalServerError, "Registration failed")
		return
	}

	h.respondWithSession(c, user)
}

// Login verifies the password and returns a session token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		fail(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.Users.GetUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, storage.ErrNotFound) {
		fail(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("login: user lookup failed")
		fail(c, http.StatusInternalServerError, "Server error during login")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		fail(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	h.respondWithSession(c, user)
}

func (h *Handler) respondWithSession(c *gin.Context, user *models.User) {
	token, err := h.JWT.Generate(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("issue token")
		fail(c, http.StatusInternalServerError, "Failed to create token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user, "token": token})
}
