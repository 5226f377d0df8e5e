package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/edspark/schoolhub_backend/config"
	"github.com/edspark/schoolhub_backend/models"
	"github.com/edspark/schoolhub_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Handlers issues and revokes the redis-backed session tokens the sync
// routes authenticate with.
type Handlers struct{}

func NewHandlers() *Handlers {
	return &Handlers{}
}

const sessionTTL = 30 * 24 * time.Hour

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

// Login checks the console user's credentials and issues a session token.
// Wrong username and wrong password are indistinguishable to the caller.
func (h *Handlers) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			details := map[string]string{}
			var verr validator.ValidationErrors
			if errors.As(err, &verr) {
				details = utils.ProcessValidationErrors(err)
			} else {
				details["body"] = err.Error()
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": details})
			return
		}

		var user models.User
		err := config.GetDB().WithContext(c.Request.Context()).
			Where("username = ?", req.Username).
			Take(&user).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
				return
			}
			config.LogError(logger, "auth", "Login", "lookup user", req.Username, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
			return
		}
		if user.IsActive != nil && !*user.IsActive {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		if err := utils.ComparePassword(user.Password, req.Password); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		token := uuid.NewString()
		if err := config.SetRedisValue("Token:"+token, user.Username, sessionTTL); err != nil {
			config.LogError(logger, "auth", "Login", "store session token", user.Username, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
			return
		}
		// Drop the cached user record so the next sync resolves it fresh.
		_ = config.RemoveRedisKey("User:" + user.Username)

		c.JSON(http.StatusOK, LoginResponse{
			Token:     token,
			ExpiresAt: time.Now().Add(sessionTTL).UTC().Format(time.RFC3339),
		})
	}
}

// Logout revokes the presented session token. Idempotent: revoking an
// unknown token still succeeds.
func (h *Handlers) Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token header required"})
			return
		}
		if err := config.RemoveRedisKey("Token:" + token); err != nil {
			config.LogError(config.GetLogger(), "auth", "Logout", "revoke session token", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}
