package services

import (
	"crypto/sha256"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hamrotask/model"
)

func CreateAccessToken(userID string, email string, role string) (string, error) {
	hmacSampleSecret := []byte(os.Getenv("JWT_SECRET_KEY"))
	claims := &model.AccessClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "hamrotask",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(60 * time.Minute)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(hmacSampleSecret)
}

func CreateRefreshToken(userID string, email string) (string, error) {
	refreshTokenSecret := []byte(os.Getenv("JWT_REFRESH_SECRET_KEY"))
	claims := &model.AccessRefresh{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "hamrotask",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(7 * 24 * time.Hour)), // Longer-lived token (7 days)
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(refreshTokenSecret)
}

// HashRefreshToken pre-hashes with SHA-256 so bcrypt never sees more
// than 32 bytes, then bcrypts the digest for storage.
func HashRefreshToken(token string) (string, error) {
	hash := sha256.Sum256([]byte(token))
	hashedToken, err := bcrypt.GenerateFromPassword(hash[:], bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedToken), nil
}

// VerifyRefreshTokenHash compares a presented refresh token against the
// stored bcrypt hash.
func VerifyRefreshTokenHash(token string, storedHash string) bool {
	hash := sha256.Sum256([]byte(token))
	return bcrypt.CompareHashAndPassword([]byte(storedHash), hash[:]) == nil
}

// StoreRefreshToken hashes and upserts the user's refresh token row.
// One row per user: a new sign-in invalidates the previous session.
func StoreRefreshToken(db *gorm.DB, userID string, refreshToken string) error {
	hashed, err := HashRefreshToken(refreshToken)
	if err != nil {
		return err
	}
	now := time.Now()
	record := model.RefreshToken{
		UserID:    userID,
		TokenHash: hashed,
		CreatedAt: now.Unix(),
		Revoked:   false,
		ExpiresIn: int64((7 * 24 * time.Hour).Seconds()),
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(&record).Error
}

// GetRefreshToken loads the stored refresh token row for a user.
func GetRefreshToken(db *gorm.DB, userID string) (*model.RefreshToken, error) {
	var record model.RefreshToken
	if err := db.Where("user_id = ?", userID).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// RevokeRefreshToken removes the user's stored refresh token.
func RevokeRefreshToken(db *gorm.DB, userID string) error {
	return db.Delete(&model.RefreshToken{}, "user_id = ?", userID).Error
}
