package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// Initialize JWT secret for tests
func init() {
	jwtSecret = []byte("test-secret-key-for-testing")
}

type TestUser struct {
	ID       int
	Username string
	Password string
	Token    string
}

// createTestUser creates a user with the given username and password,
// returns TestUser with ID and Token
func createTestUser(t *testing.T, username, password string) TestUser {
	t.Helper()

	// Clean up existing user
	cleanupTestData(username)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("failed to generate bcrypt hash: %v", err)
	}

	var userID int
	err = db.QueryRow(
		"INSERT INTO users (username, password_hash, last_online) VALUES ($1, $2, NOW()) RETURNING id",
		username, string(hash),
	).Scan(&userID)
	if err != nil {
		t.Fatalf("failed to insert user: %v", err)
	}

	token, err := issueToken(userID)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	return TestUser{
		ID:       userID,
		Username: username,
		Password: password,
		Token:    token,
	}
}

// cleanupTestData removes users and their dependent rows by username
func cleanupTestData(usernames ...string) {
	for _, u := range usernames {
		var id int
		if err := db.QueryRow("SELECT id FROM users WHERE username = $1", u).Scan(&id); err == nil {
			db.Exec("DELETE FROM writing_samples WHERE user_id = $1", id)
			db.Exec("DELETE FROM profiles WHERE user_id = $1", id)
			db.Exec("DELETE FROM users WHERE id = $1", id)
		}
	}
}

// getDefaultTestProfile returns a complete, neutral profile payload
func getDefaultTestProfile() ProfileRequest {
	return ProfileRequest{
		FullName:         "Test Student",
		Age:              20,
		Gender:           "Prefer not to say",
		College:          "Engineering",
		Major:            "Computer Science",
		SchoolYear:       "Junior",
		SmokingHabits:    "Non-smoker",
		SleepingHabits:   "Night owl",
		GuestPreferences: "I occasionally host people",
		HasPet:           false,
		Bio:              "Test bio",
	}
}

// saveTestProfile saves the profile through the real handler
func saveTestProfile(t *testing.T, user TestUser, profile ProfileRequest) {
	t.Helper()

	body, err := json.Marshal(profile)
	if err != nil {
		t.Fatalf("failed to marshal profile: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/me/profile", bytes.NewBuffer(body))
	req.Header.Set("Authorization", "Bearer "+user.Token)
	w := httptest.NewRecorder()

	meProfileHandler(db).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("failed to save profile for %s: status %d, body %s", user.Username, w.Code, w.Body.String())
	}
}

// newAuthedRequest builds a request carrying the user's bearer token
func newAuthedRequest(t *testing.T, user TestUser, method, target string, body io.Reader) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer "+user.Token)
	return req
}

func doRequest(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

// fetchMatches calls the matches endpoint and decodes the result list
func fetchMatches(t *testing.T, user TestUser) []MatchResult {
	t.Helper()

	req := newAuthedRequest(t, user, http.MethodGet, "/roommates/matches", nil)
	w := doRequest(roommateMatchesHandler(db), req)
	if w.Code != http.StatusOK {
		t.Fatalf("matches request failed: status %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Matches []MatchResult `json:"matches"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode matches: %v", err)
	}
	return resp.Matches
}

// saveTestSample stores a writing sample for the user
func saveTestSample(t *testing.T, user TestUser, content string) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO writing_samples (user_id, content, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET content = EXCLUDED.content, updated_at = NOW()
	`, user.ID, content)
	if err != nil {
		t.Fatalf("failed to save writing sample: %v", err)
	}
}
