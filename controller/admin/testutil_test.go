package admin

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
	t.Setenv("JWT_SECRET_KEY", "admin-test-secret")
	t.Setenv("JWT_REFRESH_SECRET_KEY", "admin-test-refresh-secret")

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
	AdminController(router, db)
	return router, db
}

func seedUserWithRole(t *testing.T, db *gorm.DB, name, email, role string) *model.User {
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
		Role:      role,
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

func seedUser(t *testing.T, db *gorm.DB, name, email string) *model.User {
	t.Helper()
	return seedUserWithRole(t, db, name, email, "user")
}

func seedAdmin(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()
	return seedUserWithRole(t, db, "Root", "root@example.com", "admin")
}

func mintToken(t *testing.T, user *model.User) string {
	t.Helper()
	token, err := services.CreateAccessToken(user.UserID, user.Email, user.Role)
	if err != nil {
		t.Fatalf("Failed to mint access token: %v", err)
	}
	return token
}

func seedWorkspace(t *testing.T, db *gorm.DB, owner *model.User) string {
	t.Helper()
	now := time.Now()
	ws := model.Workspace{
		WorkspaceID: uuid.New().String(),
		Name:        "Test Workspace",
		CreatedBy:   owner.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := db.Create(&ws).Error; err != nil {
		t.Fatalf("Failed to seed workspace: %v", err)
	}
	if err := db.Create(&model.WorkspaceMember{
		WorkspaceID: ws.WorkspaceID,
		UserID:      owner.UserID,
		Role:        model.RoleOwner,
		JoinedAt:    now,
	}).Error; err != nil {
		t.Fatalf("Failed to seed owner membership: %v", err)
	}
	if err := db.Create(&model.Subscription{
		SubscriptionID: uuid.New().String(),
		WorkspaceID:    ws.WorkspaceID,
		PlanCode:       "free",
		Status:         model.SubscriptionActive,
		StartedAt:      now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}).Error; err != nil {
		t.Fatalf("Failed to seed subscription: %v", err)
	}
	return ws.WorkspaceID
}

func doRequest(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
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
