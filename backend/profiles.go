package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
)

func meHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(userIDKey).(int)
		p, err := fetchProfile(db, userID)
		if err != nil {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id":        userID,
			"username":  p.Username,
			"full_name": p.FullName,
		})
	})
}

// GET /me/profile - full profile including roommate-seeking preferences
func meProfileHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			userID := r.Context().Value(userIDKey).(int)
			p, err := fetchProfile(db, userID)
			if err != nil {
				if err == sql.ErrNoRows {
					writeError(w, http.StatusNotFound, "profile_not_found")
				} else {
					writeError(w, http.StatusInternalServerError, "db_error")
				}
				return
			}
			writeJSON(w, http.StatusOK, p)
		case http.MethodPost, http.MethodPut:
			saveProfile(db).ServeHTTP(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
		}
	})
}

// ProfileRequest is the wholesale profile-edit payload: every field is
// written together, matching the single save button of the profile form.
type ProfileRequest struct {
	FullName         string `json:"full_name"`
	Age              int    `json:"age"`
	Gender           string `json:"gender"`
	College          string `json:"college"`
	Major            string `json:"major"`
	SchoolYear       string `json:"school_year"`
	SmokingHabits    string `json:"smoking_habits"`
	SleepingHabits   string `json:"sleeping_habits"`
	GuestPreferences string `json:"guest_preferences"`
	HasPet           bool   `json:"has_pet"`
	Bio              string `json:"bio"`
	ApartmentSigned  bool   `json:"apartment_signed"`

	LookingForRoommate bool                `json:"looking_for_roommate"`
	RoommatePrefs      RoommatePreferences `json:"roommate_preferences"`
}

func saveProfile(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		userID := r.Context().Value(userIDKey).(int)

		_, err := db.Exec(`
			INSERT INTO profiles (
				user_id, full_name, age, gender, college, major, school_year,
				smoking_habits, sleeping_habits, guest_preferences, has_pet, bio,
				apartment_signed, looking_for_roommate,
				pref_smoking, pref_pets, pref_school_year, pref_sleeping, pref_guests
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19
			)
			ON CONFLICT (user_id) DO UPDATE SET
				full_name = EXCLUDED.full_name,
				age = EXCLUDED.age,
				gender = EXCLUDED.gender,
				college = EXCLUDED.college,
				major = EXCLUDED.major,
				school_year = EXCLUDED.school_year,
				smoking_habits = EXCLUDED.smoking_habits,
				sleeping_habits = EXCLUDED.sleeping_habits,
				guest_preferences = EXCLUDED.guest_preferences,
				has_pet = EXCLUDED.has_pet,
				bio = EXCLUDED.bio,
				apartment_signed = EXCLUDED.apartment_signed,
				looking_for_roommate = EXCLUDED.looking_for_roommate,
				pref_smoking = EXCLUDED.pref_smoking,
				pref_pets = EXCLUDED.pref_pets,
				pref_school_year = EXCLUDED.pref_school_year,
				pref_sleeping = EXCLUDED.pref_sleeping,
				pref_guests = EXCLUDED.pref_guests
		`,
			userID, req.FullName, req.Age, req.Gender, req.College, req.Major, req.SchoolYear,
			req.SmokingHabits, req.SleepingHabits, req.GuestPreferences, req.HasPet, req.Bio,
			req.ApartmentSigned, req.LookingForRoommate,
			req.RoommatePrefs.Smoking, req.RoommatePrefs.Pets, req.RoommatePrefs.SchoolYear,
			req.RoommatePrefs.Sleeping, req.RoommatePrefs.Guests,
		)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "profile_save_error")
			log.Println("Error saving profile:", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
