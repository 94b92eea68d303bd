package handler

import (
	"errors"
	"net/http"
	"regexp"
	"time"

	"wantok/backend/internal/config"
	"wantok/backend/internal/models"
	"wantok/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const minimumAge = 18

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

type updateUserRequest struct {
	FullName *string `json:"fullName"`
	Username *string `json:"username"`
	Gender   *string `json:"gender"`
	Country  *string `json:"country"`
}

type completeProfileRequest struct {
	Username string `json:"username"`
	Gender   string `json:"gender"`
	// DOB is formatted as 2006-01-02.
	DOB string `json:"dob"`
}

type tokenAmountRequest struct {
	Amount int `json:"amount"`
}

type setTokensRequest struct {
	Tokens *int `json:"tokens"`
}

func (h *Handler) GetUser(c *gin.Context) {
	user, ok := h.loadUser(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

func (h *Handler) UpdateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, ok := h.loadUser(c, c.Param("id"))
	if !ok {
		return
	}
	if req.Username != nil {
		if !h.usernameAvailable(c, *req.Username, user.ID) {
			return
		}
		user.Username = *req.Username
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Gender != nil {
		if !validGender(*req.Gender) {
			fail(c, http.StatusBadRequest, "Invalid gender")
			return
		}
		user.Gender = *req.Gender
	}
	if req.Country != nil {
		user.Country = *req.Country
	}

	h.saveUser(c, user)
}

// CompleteProfile records gender, username and verified age for the caller.
func (h *Handler) CompleteProfile(c *gin.Context) {
	var req completeProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Gender == "" || req.DOB == "" {
		fail(c, http.StatusBadRequest, "All fields are required")
		return
	}
	if !validGender(req.Gender) {
		fail(c, http.StatusBadRequest, "Invalid gender")
		return
	}
	dob, err := time.Parse(time.DateOnly, req.DOB)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid date of birth")
		return
	}
	age := ageOn(dob, time.Now())
	if age < minimumAge {
		fail(c, http.StatusBadRequest, "You must be at least 18 years old")
		return
	}

	user, ok := h.loadUser(c, c.GetString(ctxUserID))
	if !ok {
		return
	}
	switch {
	case req.Username != "":
		if !h.usernameAvailable(c, req.Username, user.ID) {
			return
		}
		user.Username = req.Username
	case user.Username == "":
		fail(c, http.StatusBadRequest, "Username is required")
		return
	}

	user.Gender = req.Gender
	user.Age = age
	user.ProfileComplete = true
	h.saveUser(c, user)
}

func (h *Handler) AddTokens(c *gin.Context) {
	var req tokenAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
		fail(c, http.StatusBadRequest, "Invalid token amount")
		return
	}

	userID := c.Param("id")
	balance, err := h.Users.AddTokens(c.Request.Context(), userID, req.Amount)
	if !h.tokenResult(c, err, "Failed to add tokens") {
		return
	}
	log.Info().Str("user_id", userID).Int("amount", req.Amount).Int("balance", balance).Msg("tokens added")
	c.JSON(http.StatusOK, gin.H{"success": true, "tokens": balance, "tokensAdded": req.Amount})
}

func (h *Handler) DeductTokens(c *gin.Context) {
	var req tokenAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
		fail(c, http.StatusBadRequest, "Invalid token amount")
		return
	}

	userID := c.Param("id")
	balance, err := h.Users.DeductTokens(c.Request.Context(), userID, req.Amount)
	if !h.tokenResult(c, err, "Failed to deduct tokens") {
		return
	}
	log.Info().Str("user_id", userID).Int("amount", req.Amount).Int("balance", balance).Msg("tokens deducted")
	c.JSON(http.StatusOK, gin.H{"success": true, "tokens": balance, "tokensDeducted": req.Amount})
}

func (h *Handler) SetTokens(c *gin.Context) {
	var req setTokensRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Tokens == nil || *req.Tokens < 0 {
		fail(c, http.StatusBadRequest, "Invalid token amount")
		return
	}

	err := h.Users.SetTokens(c.Request.Context(), c.Param("id"), *req.Tokens)
	if !h.tokenResult(c, err, "Failed to update tokens") {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tokens": *req.Tokens})
}

func (h *Handler) tokenResult(c *gin.Context, err error, message string) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, storage.ErrNotFound):
		fail(c, http.StatusNotFound, "User not found")
	case errors.Is(err, storage.ErrInsufficientTokens):
		fail(c, http.StatusBadRequest, "Insufficient tokens")
	default:
		log.Error().Err(err).Str("user_id", c.Param("id")).Msg(message)
		fail(c, http.StatusInternalServerError, message)
	}
	return false
}

func (h *Handler) loadUser(c *gin.Context, id string) (*models.User, bool) {
	user, err := h.Users.GetUserByID(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		fail(c, http.StatusNotFound, "User not found")
		return nil, false
	}
	if err != nil {
		log.Error().Err(err).Str("user_id", id).Msg("load user")
		fail(c, http.StatusInternalServerError, "Server error")
		return nil, false
	}
	return user, true
}

func (h *Handler) saveUser(c *gin.Context, user *models.User) {
	if err := h.Users.UpdateUser(c.Request.Context(), user); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("update user")
		fail(c, http.StatusInternalServerError, "Failed to update user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// usernameAvailable validates the format and checks nobody else holds the name.
func (h *Handler) usernameAvailable(c *gin.Context, username, selfID string) bool {
	if !usernamePattern.MatchString(username) {
		fail(c, http.StatusBadRequest, "Username can only contain letters, numbers, and underscores (no spaces)")
		return false
	}
	if len(username) < config.UsernameMinLength || len(username) > config.UsernameMaxLength {
		fail(c, http.StatusBadRequest, "Username must be 3-20 characters long")
		return false
	}

	existing, err := h.Users.GetUserByUsername(c.Request.Context(), username)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return true
	case err != nil:
		log.Error().Err(err).Str("username", username).Msg("username lookup")
		fail(c, http.StatusInternalServerError, "Server error")
		return false
	case existing.ID != selfID:
		fail(c, http.StatusBadRequest, "Username already taken")
		return false
	}
	return true
}

func validGender(g string) bool {
	return g == "Male" || g == "Female"
}

func ageOn(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}
