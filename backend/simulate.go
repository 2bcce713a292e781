package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
)

// POST /roommates/simulate {"candidate": "<username>"}
//
// Simulates a getting-to-know-you conversation between the caller and a
// matched candidate. Both parties must have a writing sample on file; if
// either is missing the handler reports which side without touching the
// language model.
func simulateConversationHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}

		type SimulateRequest struct {
			Candidate string `json:"candidate"`
		}
		var req SimulateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		req.Candidate = strings.TrimSpace(req.Candidate)
		if req.Candidate == "" {
			writeError(w, http.StatusBadRequest, "missing_fields")
			return
		}

		userID := r.Context().Value(userIDKey).(int)
		requester, err := fetchProfile(db, userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}

		candidate, err := fetchProfileByUsername(db, req.Candidate)
		if err == sql.ErrNoRows {
			writeError(w, http.StatusNotFound, "not_found")
			return
		} else if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		if candidate.UserID == userID || !candidate.LookingForRoommate {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}

		requesterSample, err := loadWritingSample(db, userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		candidateSample, err := loadWritingSample(db, candidate.UserID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}

		// Missing samples are a named condition, not a model failure
		if strings.TrimSpace(requesterSample) == "" {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"error": "missing_sample",
				"party": requester.Username,
			})
			return
		}
		if strings.TrimSpace(candidateSample) == "" {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"error": "missing_sample",
				"party": candidate.Username,
			})
			return
		}

		prompt := buildSimulationPrompt(requester, candidate, requesterSample, candidateSample)
		conversation, err := generate(r.Context(), prompt)
		if err != nil {
			log.Println("Conversation simulation failed:", err)
			writeError(w, http.StatusBadGateway, "generation_failed")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"requester":    requester.Username,
			"candidate":    candidate.Username,
			"conversation": conversation,
		})
	})
}

// buildSimulationPrompt assembles the two profiles and writing samples into
// one instruction for the model.
func buildSimulationPrompt(a, b Profile, sampleA, sampleB string) string {
	var sb strings.Builder
	sb.WriteString("Simulate a short, friendly first conversation between two university students ")
	sb.WriteString("who were matched as potential roommates. Write it as a chat transcript. ")
	sb.WriteString("Match each person's tone to their writing sample.\n\n")
	writeParticipant(&sb, a, sampleA)
	writeParticipant(&sb, b, sampleB)
	sb.WriteString("The conversation should touch on living habits and whether they would get along as roommates.")
	return sb.String()
}

func writeParticipant(sb *strings.Builder, p Profile, sample string) {
	fmt.Fprintf(sb, "Participant: %s\n", p.FullName)
	fmt.Fprintf(sb, "- %s, %s at %s, age %d\n", p.SchoolYear, p.Major, p.College, p.Age)
	fmt.Fprintf(sb, "- Smoking: %s; Sleeping: %s; Guests: %s; Has pet: %s\n",
		p.SmokingHabits, p.SleepingHabits, p.GuestPreferences, hasPetAnswer(p.HasPet))
	if p.Bio != "" {
		fmt.Fprintf(sb, "- Bio: %s\n", p.Bio)
	}
	fmt.Fprintf(sb, "- Writing sample:\n%s\n\n", sample)
}
