package field

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

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	t.Setenv("JWT_SECRET_KEY", "field-test-secret")

	db := setupTestDB(t)
	gin.SetMode(gin.TestMode)
	router := gin.New()
	FieldController(router, db, nil)
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

// seedBoard wires a workspace, a project with one lane and one task,
// everything field tests need.
func seedBoard(t *testing.T, db *gorm.DB, owner *model.User) (projectID, taskID string) {
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
		t.Fatalf("Failed to seed membership: %v", err)
	}

	project := model.Project{
		ProjectID:   uuid.New().String(),
		WorkspaceID: ws.WorkspaceID,
		Name:        "Board",
		CreatedBy:   owner.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("Failed to seed project: %v", err)
	}
	status := model.Status{
		StatusID:  uuid.New().String(),
		ProjectID: project.ProjectID,
		Name:      "To Do",
		Color:     "#94a3b8",
	}
	if err := db.Create(&status).Error; err != nil {
		t.Fatalf("Failed to seed status: %v", err)
	}
	task := model.Task{
		TaskID:    uuid.New().String(),
		ProjectID: project.ProjectID,
		StatusID:  status.StatusID,
		Title:     "Fielded",
		Priority:  model.PriorityMedium,
		CreatedBy: owner.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(&task).Error; err != nil {
		t.Fatalf("Failed to seed task: %v", err)
	}
	return project.ProjectID, task.TaskID
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

func createField(t *testing.T, router *gin.Engine, token, projectID string, body map[string]interface{}) string {
	t.Helper()
	w := doRequest(t, router, http.MethodPost, "/project/"+projectID+"/fields", token, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("CreateField status = %d: %s", w.Code, w.Body.String())
	}
	id, _ := decodeBody(t, w)["fieldId"].(string)
	if id == "" {
		t.Fatal("CreateField returned no fieldId")
	}
	return id
}
