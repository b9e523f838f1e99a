package status

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

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	t.Setenv("JWT_SECRET_KEY", "status-test-secret")

	db := setupTestDB(t)
	gin.SetMode(gin.TestMode)
	router := gin.New()
	StatusController(router, db, nil)
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

// seedProject creates a project with the standard four lanes and
// returns the project ID plus the lanes in position order.
func seedProject(t *testing.T, db *gorm.DB, workspaceID, creatorID string) (string, []model.Status) {
	t.Helper()
	now := time.Now()
	project := model.Project{
		ProjectID:   uuid.New().String(),
		WorkspaceID: workspaceID,
		Name:        "Board",
		CreatedBy:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("Failed to seed project: %v", err)
	}

	lanes := []struct {
		name  string
		color string
	}{
		{"To Do", "#94a3b8"},
		{"In Progress", "#3b82f6"},
		{"Review", "#f59e0b"},
		{"Done", "#22c55e"},
	}
	statuses := make([]model.Status, 0, len(lanes))
	for i, lane := range lanes {
		status := model.Status{
			StatusID:  uuid.New().String(),
			ProjectID: project.ProjectID,
			Name:      lane.name,
			Color:     lane.color,
			Position:  i,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := db.Create(&status).Error; err != nil {
			t.Fatalf("Failed to seed status: %v", err)
		}
		statuses = append(statuses, status)
	}
	return project.ProjectID, statuses
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

func positionsByID(t *testing.T, db *gorm.DB, projectID string) map[string]int {
	t.Helper()
	var statuses []model.Status
	if err := db.Where("project_id = ?", projectID).Find(&statuses).Error; err != nil {
		t.Fatalf("Failed to load statuses: %v", err)
	}
	out := make(map[string]int, len(statuses))
	for _, s := range statuses {
		out[s.StatusID] = s.Position
	}
	return out
}
