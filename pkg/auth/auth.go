package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/arnavshah/shift-optimizer/pkg/config"
	"github.com/arnavshah/shift-optimizer/pkg/database"
)

var (
	jwtSecret     []byte
	masterSecret  []byte
	adminUsername = "admin"
	adminPassword = "admin123"
)

var jwtAlgorithm = jwt.SigningMethodHS256

// tokenTTL is how long an admin session stays valid
const tokenTTL = 24 * time.Hour

// bcryptCost of stored admin passwords
const bcryptCost = 14

// Configure installs the signing secrets and bootstrap admin credentials.
// It must run before the router serves requests.
func Configure(cfg config.AuthConfig) {
	jwtSecret = []byte(cfg.JWTSecret)
	masterSecret = []byte(cfg.APIMasterSecret)
	if cfg.AdminUsername != "" {
		adminUsername = cfg.AdminUsername
	}
	if cfg.AdminPassword != "" {
		adminPassword = cfg.AdminPassword
	}
}

// Claims represents the JWT claims
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CreateToken creates a new JWT token for a user
func CreateToken(username string) (string, error) {
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwtAlgorithm, claims)
	return token.SignedString(jwtSecret)
}

// VerifyToken verifies a JWT token
func VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwtAlgorithm {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// TouchAPIKey records that key was just used
func TouchAPIKey(db *gorm.DB, apiKey *database.APIKey) error {
	now := time.Now()
	apiKey.LastUsed = &now
	return db.Model(apiKey).Update("last_used", now).Error
}

// EnsureAdminExists creates the bootstrap admin when no admin exists yet.
func EnsureAdminExists(db *gorm.DB, logger *zap.Logger) error {
	var count int64
	if err := db.Model(&database.MasterUser{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := HashPassword(adminPassword)
	if err != nil {
		return err
	}

	user := database.MasterUser{
		Username:     adminUsername,
		PasswordHash: hash,
	}
	if err := db.Create(&user).Error; err != nil {
		return err
	}
	if logger != nil {
		logger.Info("default admin user created", zap.String("username", adminUsername))
	}
	return nil
}

func sign(userID string) string {
	h := hmac.New(sha256.New, masterSecret)
	h.Write([]byte(userID))
	return hex.EncodeToString(h.Sum(nil))
}

// GenerateHMACKey creates a signed API key using HMAC-SHA256
func GenerateHMACKey(userID string) string {
	return userID + "." + sign(userID)
}

// VerifyHMACKey validates an HMAC-signed API key and returns its user id
func VerifyHMACKey(key string) (string, error) {
	if len(masterSecret) == 0 {
		return "", errors.New("api master secret not configured")
	}

	parts := strings.Split(key, ".")
	if len(parts) != 2 || parts[0] == "" {
		return "", errors.New("invalid key format")
	}

	userID := parts[0]
	if !hmac.Equal([]byte(parts[1]), []byte(sign(userID))) {
		return "", errors.New("invalid signature")
	}

	return userID, nil
}

// KeyPreview masks all but the edges of a key for listings
func KeyPreview(key string) string {
	if len(key) > 8 {
		return key[:3] + "..." + key[len(key)-4:]
	}
	return "****"
}
