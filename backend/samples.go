package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strings"
)

// Writing samples are free text a user uploads so the conversation simulator
// can imitate their tone. Stored one per user, overwritten on re-upload.

// GET/POST /me/sample
func meSampleHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(userIDKey).(int)

		switch r.Method {
		case http.MethodGet:
			content, err := loadWritingSample(db, userID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "db_error")
				return
			}
			if content == "" {
				writeError(w, http.StatusNotFound, "sample_not_found")
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"content": content})

		case http.MethodPost, http.MethodPut:
			type SampleRequest struct {
				Content string `json:"content"`
			}
			var req SampleRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_json")
				return
			}
			if strings.TrimSpace(req.Content) == "" {
				writeError(w, http.StatusBadRequest, "empty_sample")
				return
			}
			_, err := db.Exec(`
				INSERT INTO writing_samples (user_id, content, updated_at)
				VALUES ($1, $2, NOW())
				ON CONFLICT (user_id) DO UPDATE SET
					content = EXCLUDED.content,
					updated_at = NOW()
			`, userID, req.Content)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "sample_save_error")
				log.Println("Error saving writing sample:", err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})

		default:
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
		}
	})
}

// loadWritingSample returns the user's sample text, or "" when none exists.
// Absence is not an error; callers decide whether an empty sample blocks them.
func loadWritingSample(db *sql.DB, userID int) (string, error) {
	var content string
	err := db.QueryRow("SELECT content FROM writing_samples WHERE user_id = $1", userID).Scan(&content)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return content, nil
}
