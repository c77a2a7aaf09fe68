package handlers

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/arnavshah/shift-optimizer/pkg/auth"
	"github.com/arnavshah/shift-optimizer/pkg/cache"
	"github.com/arnavshah/shift-optimizer/pkg/database"
	apperrors "github.com/arnavshah/shift-optimizer/pkg/errors"
	"github.com/arnavshah/shift-optimizer/pkg/metrics"
	"github.com/arnavshah/shift-optimizer/pkg/milp"
	"github.com/arnavshah/shift-optimizer/pkg/scheduler"
)

//go:embed static/*
var staticEmbed embed.FS

// Version is reported by the root endpoint
const Version = "3.0.0"

const defaultRateLimit = 10000

// Handler contains dependencies for the route handlers. DB and Cache are
// optional; routes that need storage answer 503 without a DB.
type Handler struct {
	DB      *gorm.DB
	Engine  *scheduler.Engine
	Solver  milp.Solver
	Cache   *cache.ResultCache
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	Sweep   scheduler.SweepOptions
}

func (h *Handler) log() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

// respondError writes err as JSON. Validation failures carry the offending field.
func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *scheduler.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": verr.Message,
			"field":   verr.Field,
		})
		return
	}

	appErr := apperrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.log().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(appErr.Status, gin.H{"error": appErr.Message, "code": appErr.Code})
}

var errNoStorage = apperrors.New("STORAGE_DISABLED", http.StatusServiceUnavailable, "storage is not configured")

// requireDB answers 503 when the handler runs without a database.
func (h *Handler) requireDB(c *gin.Context) bool {
	if h.DB == nil {
		h.respondError(c, errNoStorage)
		return false
	}
	return true
}

func bearer(c *gin.Context) string {
	return strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
}

// Root reports the service name and version
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Shift Optimizer API",
		"version": Version,
	})
}

// Health reports liveness and, when configured, database reachability
func (h *Handler) Health(c *gin.Context) {
	status := gin.H{"status": "ok"}
	if h.DB != nil {
		sqlDB, err := h.DB.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}
		status["database"] = "ok"
	}
	c.JSON(http.StatusOK, status)
}

// AuthMiddleware verifies the JWT token for admin routes
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, err := auth.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set("username", claims.Username)
		c.Next()
	}
}

// APIKeyMiddleware verifies the HMAC API key and enforces the key's daily limit
func (h *Handler) APIKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearer(c)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API Key required"})
			return
		}

		userID, err := auth.VerifyHMACKey(key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API Key signature"})
			return
		}
		c.Set("userID", userID)

		if h.DB != nil {
			// Keys are stateless; the row only exists to track usage.
			var apiKey database.APIKey
			err := h.DB.Where(database.APIKey{Key: key}).Attrs(database.APIKey{
				Name:       userID,
				KeyPreview: auth.KeyPreview(key),
				RateLimit:  defaultRateLimit,
			}).FirstOrCreate(&apiKey).Error
			if err != nil {
				h.respondError(c, err)
				c.Abort()
				return
			}

			var usage database.APIUsage
			today := time.Now().Format("2006-01-02")
			if err := h.DB.Where("key_id = ? AND date = ?", apiKey.ID, today).Limit(1).Find(&usage).Error; err == nil &&
				apiKey.RateLimit > 0 && usage.RequestCount >= apiKey.RateLimit {
				h.respondError(c, apperrors.ErrRateLimited)
				c.Abort()
				return
			}

			if err := auth.TouchAPIKey(h.DB, &apiKey); err != nil {
				h.log().Warn("could not record key use", zap.Error(err))
			}
			c.Set("apiKey", &apiKey)
		}
		c.Next()
	}
}

// RecordUsage adds the request to the caller's daily usage counters
func (h *Handler) RecordUsage(c *gin.Context, shiftCount, employeeCount int) {
	if h.DB == nil {
		return
	}
	apiKeyRaw, exists := c.Get("apiKey")
	if !exists {
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)

	today := time.Now().Format("2006-01-02")
	if err := database.RecordUsage(h.DB, apiKey.ID, today, shiftCount, employeeCount); err != nil {
		h.log().Warn("could not record usage", zap.Uint("key_id", apiKey.ID), zap.Error(err))
	}
}

// Login handles admin login
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.requireDB(c) {
		return
	}

	var user database.MasterUser
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := auth.CreateToken(user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

// GenerateKey creates a new API key using the HMAC strategy
func (h *Handler) GenerateKey(c *gin.Context) {
	var req struct {
		Name      string `json:"name"`
		RateLimit int    `json:"rate_limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name == "" || strings.Contains(req.Name, ".") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required and must not contain '.'"})
		return
	}
	if !h.requireDB(c) {
		return
	}

	if req.RateLimit == 0 {
		req.RateLimit = defaultRateLimit
	}

	key := auth.GenerateHMACKey(req.Name)
	apiKey := database.APIKey{
		Key:        key,
		Name:       req.Name,
		KeyPreview: auth.KeyPreview(key),
		RateLimit:  req.RateLimit,
	}

	if err := h.DB.Create(&apiKey).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create key record"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":   apiKey.ID,
		"name": req.Name,
		"key":  key,
	})
}

// ListKeys returns all API keys
func (h *Handler) ListKeys(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	var keys []database.APIKey
	if err := h.DB.Order("id").Find(&keys).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

// RevokeKey deletes an API key record and its usage history
func (h *Handler) RevokeKey(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	id := c.Param("id")
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("key_id = ?", id).Delete(&database.APIUsage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&database.APIKey{}, id).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete key"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Key revoked"})
}

// UpdateKeyLimit updates the daily request limit for a key
func (h *Handler) UpdateKeyLimit(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		RateLimit int `json:"rate_limit" form:"rate_limit"`
	}

	// Try JSON first, then Form/Query
	if err := c.ShouldBindJSON(&req); err != nil {
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rate_limit is required"})
			return
		}
	}

	if req.RateLimit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rate limit"})
		return
	}
	if !h.requireDB(c) {
		return
	}

	if err := h.DB.Model(&database.APIKey{}).Where("id = ?", id).Update("rate_limit", req.RateLimit).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update key limit"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rate limit updated successfully"})
}

// GetUsage returns the last 30 days of usage for a key
func (h *Handler) GetUsage(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	id := c.Param("id")
	var usage []database.APIUsage
	if err := h.DB.Where("key_id = ?", id).Order("date desc").Limit(30).Find(&usage).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"usage": usage})
}

// AdminInterface serves the admin web interface from embedded files
func (h *Handler) AdminInterface(c *gin.Context) {
	if h.DB != nil {
		if err := auth.EnsureAdminExists(h.DB, h.log()); err != nil {
			h.log().Warn("could not ensure admin user", zap.Error(err))
		}
	}

	data, err := staticEmbed.ReadFile("static/index.html")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "static/index.html not found in embedded FS"})
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", data)
}

// GetStaticFS returns the embedded filesystem for static assets
func (h *Handler) GetStaticFS() http.FileSystem {
	sub, err := fs.Sub(staticEmbed, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
