package project

import (
	"bytes"
	"encoding/json"
	"net/http"
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

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func testPlans() []model.Plan {
	return []model.Plan{
		{Code: "free", Name: "Free", Price: 0, Currency: "NPR", MaxMembers: 5, MaxProjects: 3},
		{Code: "pro", Name: "Pro", Price: 99900, Currency: "NPR", MaxMembers: 25, MaxProjects: 20},
	}
}

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	t.Setenv("JWT_SECRET_KEY", "project-test-secret")

	db := setupTestDB(t)
	gin.SetMode(gin.TestMode)
	router := gin.New()
	ProjectController(router, db, nil, testPlans())
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
	member := model.WorkspaceMember{
		WorkspaceID: ws.WorkspaceID,
		UserID:      owner.UserID,
		Role:        model.RoleOwner,
		JoinedAt:    now,
	}
	if err := db.Create(&member).Error; err != nil {
		t.Fatalf("Failed to seed owner membership: %v", err)
	}
	return ws.WorkspaceID
}

func addMember(t *testing.T, db *gorm.DB, workspaceID, userID, role string) {
	t.Helper()
	member := model.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        role,
		JoinedAt:    time.Now(),
	}
	if err := db.Create(&member).Error; err != nil {
		t.Fatalf("Failed to seed member: %v", err)
	}
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

func createProject(t *testing.T, router *gin.Engine, token, workspaceID, name string) string {
	t.Helper()
	w := doRequest(t, router, http.MethodPost, "/workspace/"+workspaceID+"/project", token,
		map[string]string{"name": name})
	if w.Code != http.StatusCreated {
		t.Fatalf("CreateProject status = %d: %s", w.Code, w.Body.String())
	}
	id, _ := decodeBody(t, w)["projectId"].(string)
	if id == "" {
		t.Fatal("CreateProject returned no projectId")
	}
	return id
}
