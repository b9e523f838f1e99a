package chat

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"hamrotask/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func openConversation(t *testing.T, router *gin.Engine, token, otherID string) string {
	t.Helper()
	w := doRequest(t, router, http.MethodPost, "/dm", token, map[string]interface{}{"userId": otherID})
	if w.Code != http.StatusCreated && w.Code != http.StatusOK {
		t.Fatalf("OpenConversation status = %d: %s", w.Code, w.Body.String())
	}
	conversation := decodeBody(t, w)["conversation"].(map[string]interface{})
	return conversation["conversationId"].(string)
}

func seedDirectMessage(t *testing.T, db *gorm.DB, conversationID, senderID, body string, at time.Time) string {
	t.Helper()
	message := model.DirectMessage{
		MessageID:      uuid.New().String(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
		CreatedAt:      at,
	}
	if err := db.Create(&message).Error; err != nil {
		t.Fatalf("Failed to seed direct message: %v", err)
	}
	return message.MessageID
}

func TestOpenConversationCanonicalPair(t *testing.T) {
	router, db := setupRouter(t)
	alice := seedUser(t, db, "Alice", "alice@example.com")
	bob := seedUser(t, db, "Bob", "bob@example.com")

	w := doRequest(t, router, http.MethodPost, "/dm", mintToken(t, alice),
		map[string]interface{}{"userId": bob.UserID})
	if w.Code != http.StatusCreated {
		t.Fatalf("First open status = %d, want 201", w.Code)
	}
	first := decodeBody(t, w)["conversation"].(map[string]interface{})["conversationId"].(string)

	// Opening from the other side lands on the same row.
	w = doRequest(t, router, http.MethodPost, "/dm", mintToken(t, bob),
		map[string]interface{}{"userId": alice.UserID})
	if w.Code != http.StatusOK {
		t.Fatalf("Second open status = %d, want 200", w.Code)
	}
	second := decodeBody(t, w)["conversation"].(map[string]interface{})["conversationId"].(string)
	if first != second {
		t.Errorf("Conversation ids differ: %s vs %s", first, second)
	}

	var conversation model.DirectConversation
	if err := db.Where("conversation_id = ?", first).First(&conversation).Error; err != nil {
		t.Fatalf("Conversation row missing: %v", err)
	}
	if conversation.UserA > conversation.UserB {
		t.Errorf("Pair not stored in canonical order: %s > %s", conversation.UserA, conversation.UserB)
	}

	var count int64
	db.Model(&model.DirectConversation{}).Count(&count)
	if count != 1 {
		t.Errorf("Conversation count = %d, want 1", count)
	}
}

func TestOpenConversationValidation(t *testing.T) {
	router, db := setupRouter(t)
	alice := seedUser(t, db, "Alice", "alice@example.com")
	token := mintToken(t, alice)

	w := doRequest(t, router, http.MethodPost, "/dm", token,
		map[string]interface{}{"userId": alice.UserID})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Self DM status = %d, want 400", w.Code)
	}

	w = doRequest(t, router, http.MethodPost, "/dm", token,
		map[string]interface{}{"userId": uuid.New().String()})
	if w.Code != http.StatusNotFound {
		t.Errorf("Unknown user status = %d, want 404", w.Code)
	}
}

func TestListConversations(t *testing.T) {
	router, db := setupRouter(t)
	alice := seedUser(t, db, "Alice", "alice@example.com")
	bob := seedUser(t, db, "Bob", "bob@example.com")
	carol := seedUser(t, db, "Carol", "carol@example.com")
	aliceToken := mintToken(t, alice)

	bobConv := openConversation(t, router, aliceToken, bob.UserID)
	carolConv := openConversation(t, router, aliceToken, carol.UserID)
	seedDirectMessage(t, db, bobConv, bob.UserID, "see you at standup", time.Now())

	w := doRequest(t, router, http.MethodGet, "/dm", aliceToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("List status = %d: %s", w.Code, w.Body.String())
	}
	entries := decodeBody(t, w)["conversations"].([]interface{})
	if len(entries) != 2 {
		t.Fatalf("Conversation count = %d, want 2", len(entries))
	}

	byID := make(map[string]map[string]interface{}, len(entries))
	for _, raw := range entries {
		entry := raw.(map[string]interface{})
		byID[entry["conversationId"].(string)] = entry
	}

	withBob := byID[bobConv]
	if withBob == nil {
		t.Fatal("Conversation with Bob missing from list")
	}
	if withBob["user"].(map[string]interface{})["userId"] != bob.UserID {
		t.Error("Entry should show the other participant")
	}
	last, ok := withBob["lastMessage"].(map[string]interface{})
	if !ok || last["body"] != "see you at standup" {
		t.Errorf("lastMessage = %v", withBob["lastMessage"])
	}

	withCarol := byID[carolConv]
	if withCarol == nil {
		t.Fatal("Conversation with Carol missing from list")
	}
	if _, ok := withCarol["lastMessage"]; ok {
		t.Error("Empty conversation should have no lastMessage")
	}
}

func TestDirectMessagesParticipantsOnly(t *testing.T) {
	router, db := setupRouter(t)
	alice := seedUser(t, db, "Alice", "alice@example.com")
	bob := seedUser(t, db, "Bob", "bob@example.com")
	carol := seedUser(t, db, "Carol", "carol@example.com")
	conversationID := openConversation(t, router, mintToken(t, alice), bob.UserID)
	carolToken := mintToken(t, carol)

	w := doRequest(t, router, http.MethodGet, "/dm/"+conversationID+"/messages", carolToken, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Outsider list status = %d, want 404", w.Code)
	}

	w = doRequest(t, router, http.MethodPost, "/dm/"+conversationID+"/messages", carolToken,
		map[string]interface{}{"body": "eavesdropping"})
	if w.Code != http.StatusNotFound {
		t.Errorf("Outsider send status = %d, want 404", w.Code)
	}
}

func TestSendAndPageDirectMessages(t *testing.T) {
	router, db := setupRouter(t)
	alice := seedUser(t, db, "Alice", "alice@example.com")
	bob := seedUser(t, db, "Bob", "bob@example.com")
	aliceToken := mintToken(t, alice)
	conversationID := openConversation(t, router, aliceToken, bob.UserID)

	w := doRequest(t, router, http.MethodPost, "/dm/"+conversationID+"/messages", aliceToken,
		map[string]interface{}{"body": "lunch?", "clientRef": "dm-1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Send status = %d: %s", w.Code, w.Body.String())
	}
	data := decodeBody(t, w)["data"].(map[string]interface{})
	if data["clientRef"] != "dm-1" || data["senderId"] != alice.UserID {
		t.Errorf("data = %v", data)
	}

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	seedDirectMessage(t, db, conversationID, alice.UserID, "old one", base)
	seedDirectMessage(t, db, conversationID, bob.UserID, "old two", base.Add(time.Second))

	cursor := strconv.FormatInt(base.Add(time.Second).UnixMilli(), 10)
	w = doRequest(t, router, http.MethodGet, "/dm/"+conversationID+"/messages?before="+cursor, mintToken(t, bob), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("List status = %d", w.Code)
	}
	messages := decodeBody(t, w)["messages"].([]interface{})
	if len(messages) != 1 {
		t.Fatalf("Cursor page length = %d, want 1", len(messages))
	}
	if messages[0].(map[string]interface{})["body"] != "old one" {
		t.Errorf("Cursor page = %v", messages[0])
	}
}

func TestEditDirectMessage(t *testing.T) {
	router, db := setupRouter(t)
	alice := seedUser(t, db, "Alice", "alice@example.com")
	bob := seedUser(t, db, "Bob", "bob@example.com")
	conversationID := openConversation(t, router, mintToken(t, alice), bob.UserID)
	messageID := seedDirectMessage(t, db, conversationID, alice.UserID, "tpyo", time.Now())

	w := doRequest(t, router, http.MethodPut, "/dm/"+conversationID+"/messages/"+messageID, mintToken(t, bob),
		map[string]interface{}{"body": "not yours"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("Other participant edit status = %d, want 403", w.Code)
	}

	w = doRequest(t, router, http.MethodPut, "/dm/"+conversationID+"/messages/"+messageID, mintToken(t, alice),
		map[string]interface{}{"body": "typo"})
	if w.Code != http.StatusOK {
		t.Fatalf("Sender edit status = %d: %s", w.Code, w.Body.String())
	}
	if decodeBody(t, w)["data"].(map[string]interface{})["editedAt"] == nil {
		t.Error("editedAt should be stamped")
	}

	var message model.DirectMessage
	if err := db.Where("message_id = ?", messageID).First(&message).Error; err != nil {
		t.Fatalf("Failed to reload message: %v", err)
	}
	if message.Body != "typo" || message.EditedAt == nil {
		t.Errorf("Stored message = %+v", message)
	}
}

func TestDeleteDirectMessageSenderOnly(t *testing.T) {
	router, db := setupRouter(t)
	alice := seedUser(t, db, "Alice", "alice@example.com")
	bob := seedUser(t, db, "Bob", "bob@example.com")
	conversationID := openConversation(t, router, mintToken(t, alice), bob.UserID)
	messageID := seedDirectMessage(t, db, conversationID, alice.UserID, "regret", time.Now())

	// No moderator override in DMs.
	w := doRequest(t, router, http.MethodDelete, "/dm/"+conversationID+"/messages/"+messageID, mintToken(t, bob), nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("Other participant delete status = %d, want 403", w.Code)
	}

	w = doRequest(t, router, http.MethodDelete, "/dm/"+conversationID+"/messages/"+messageID, mintToken(t, alice), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Sender delete status = %d: %s", w.Code, w.Body.String())
	}

	var message model.DirectMessage
	if err := db.Where("message_id = ?", messageID).First(&message).Error; err != nil {
		t.Fatalf("Soft deleted row should remain: %v", err)
	}
	if message.Body != "" || !message.Deleted {
		t.Errorf("Soft delete left body=%q deleted=%v", message.Body, message.Deleted)
	}

	w = doRequest(t, router, http.MethodPut, "/dm/"+conversationID+"/messages/"+messageID, mintToken(t, alice),
		map[string]interface{}{"body": "undo"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Edit after delete status = %d, want 400", w.Code)
	}
}
