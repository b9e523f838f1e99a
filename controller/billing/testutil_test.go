package billing

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

func testPlans() []model.Plan {
	return []model.Plan{
		{Code: "free", Name: "Free", Price: 0, Currency: "NPR", MaxMembers: 5, MaxProjects: 3},
		{Code: "pro", Name: "Pro", Price: 99900, Currency: "NPR", MaxMembers: 25, MaxProjects: 20},
		{Code: "business", Name: "Business", Price: 299900, Currency: "NPR", MaxMembers: 0, MaxProjects: 0},
	}
}

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	t.Setenv("JWT_SECRET_KEY", "billing-test-secret")
	t.Setenv("BILLING_WEBHOOK_SECRET", "gateway-shared-secret")

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
	BillingController(router, db, nil, testPlans())
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

// seedWorkspace inserts a workspace with its owner membership and the
// free subscription row every workspace starts on.
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

// subscribe starts a paid plan change and returns the payment reference.
func subscribe(t *testing.T, router *gin.Engine, token, workspaceID, planCode string) string {
	t.Helper()
	w := doRequest(t, router, http.MethodPost, "/workspace/"+workspaceID+"/subscribe", token,
		map[string]interface{}{"planCode": planCode})
	if w.Code != http.StatusCreated {
		t.Fatalf("Subscribe status = %d: %s", w.Code, w.Body.String())
	}
	reference, _ := decodeBody(t, w)["reference"].(string)
	if reference == "" {
		t.Fatal("Subscribe returned no payment reference")
	}
	return reference
}
