package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"photovote/db"
	"photovote/models"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SetupTestDB returns a fresh, migrated in-memory SQLite database that lives until the test ends
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := db.Open("", dsn)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err = models.Init(conn); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return conn
}

// CreateTestPhoto inserts a photo row with the given ID (no file behind it)
func CreateTestPhoto(t *testing.T, conn *gorm.DB, id string) models.Photo {
	t.Helper()

	uploader := "Tester"
	photo := models.Photo{
		ID:           id,
		StoragePath:  id + ".jpg",
		UploaderName: &uploader,
		MimeType:     "image/jpeg",
	}
	if err := conn.Create(&photo).Error; err != nil {
		t.Fatalf("Failed to create test photo: %v", err)
	}
	return photo
}

// CreateTestVote inserts a vote row directly, bypassing the limiter
func CreateTestVote(t *testing.T, conn *gorm.DB, voterKey, photoID string) {
	t.Helper()

	if err := conn.Create(&models.Vote{VoterKey: voterKey, PhotoID: photoID}).Error; err != nil {
		t.Fatalf("Failed to create test vote: %v", err)
	}
}

// MakeRequest creates an HTTP test request with an optional JSON body
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
