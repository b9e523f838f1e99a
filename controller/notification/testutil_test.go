package notification

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"hamrotask/model"
	"hamrotask/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	t.Setenv("JWT_SECRET_KEY", "notification-test-secret")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	NotificationController(router, db)
	return router, db
}

func seedUser(t *testing.T, db *gorm.DB, name, email string) *model.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user := &model.User{
		UserID:    uuid.New().String(),
		Email:     email,
		Name:      name,
		Password:  string(hashed),
		Role:      "user",
		Verify:    "1",
		Active:    "1",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return user
}

func mintToken(t *testing.T, user *model.User) string {
	t.Helper()
	token, err := services.CreateAccessToken(user.UserID, user.Email, user.Role)
	if err != nil {
		t.Fatalf("Failed to mint access token: %v", err)
	}
	return token
}

func seedNotification(t *testing.T, db *gorm.DB, userID, title string, read bool, at time.Time) string {
	t.Helper()
	notif := model.Notification{
		NotificationID: uuid.New().String(),
		UserID:         userID,
		Type:           model.NotificationTaskAssigned,
		Title:          title,
		Body:           "body of " + title,
		ResourceType:   "task",
		ResourceID:     uuid.New().String(),
		Read:           read,
		CreatedAt:      at,
	}
	if err := db.Create(&notif).Error; err != nil {
		t.Fatalf("Failed to seed notification: %v", err)
	}
	return notif.NotificationID
}

func doRequest(t *testing.T, router *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(nil))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return body
}

func unreadCount(t *testing.T, db *gorm.DB, userID string) int64 {
	t.Helper()
	var count int64
	db.Model(&model.Notification{}).Where("user_id = ? AND read = ?", userID, false).Count(&count)
	return count
}
