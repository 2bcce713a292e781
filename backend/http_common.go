package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
)

// --- Response helpers ---
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// withTx wraps a function in a database transaction.
// - Ensures COMMIT on success, ROLLBACK on errors or panics.
// - Keeps handler bodies tiny and all state changes atomic.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}

	defer func() {
		// If the callback panics, make sure to rollback before re-panicking
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

const profileColumns = `
	u.id, u.username,
	COALESCE(p.full_name, ''), COALESCE(p.age, 0), COALESCE(p.gender, ''),
	COALESCE(p.college, ''), COALESCE(p.major, ''), COALESCE(p.school_year, ''),
	COALESCE(p.smoking_habits, ''), COALESCE(p.sleeping_habits, ''),
	COALESCE(p.guest_preferences, ''), COALESCE(p.has_pet, FALSE),
	COALESCE(p.bio, ''), COALESCE(p.apartment_signed, FALSE),
	COALESCE(p.looking_for_roommate, FALSE),
	COALESCE(p.pref_smoking, ''), COALESCE(p.pref_pets, ''),
	COALESCE(p.pref_school_year, ''), COALESCE(p.pref_sleeping, ''),
	COALESCE(p.pref_guests, '')`

func scanProfile(row interface{ Scan(...interface{}) error }, p *Profile) error {
	return row.Scan(
		&p.UserID, &p.Username,
		&p.FullName, &p.Age, &p.Gender,
		&p.College, &p.Major, &p.SchoolYear,
		&p.SmokingHabits, &p.SleepingHabits,
		&p.GuestPreferences, &p.HasPet,
		&p.Bio, &p.ApartmentSigned,
		&p.LookingForRoommate,
		&p.RoommatePrefs.Smoking, &p.RoommatePrefs.Pets,
		&p.RoommatePrefs.SchoolYear, &p.RoommatePrefs.Sleeping,
		&p.RoommatePrefs.Guests,
	)
}

// fetchProfile loads a user's full profile by id. Returns sql.ErrNoRows when
// the user does not exist; a user without a saved profile row comes back with
// zero-valued profile fields.
func fetchProfile(db *sql.DB, userID int) (Profile, error) {
	var p Profile
	err := scanProfile(db.QueryRow(`
		SELECT `+profileColumns+`
		FROM users u
		LEFT JOIN profiles p ON p.user_id = u.id
		WHERE u.id = $1
	`, userID), &p)
	return p, err
}

// fetchProfileByUsername is fetchProfile keyed by the unique username.
func fetchProfileByUsername(db *sql.DB, username string) (Profile, error) {
	var p Profile
	err := scanProfile(db.QueryRow(`
		SELECT `+profileColumns+`
		FROM users u
		LEFT JOIN profiles p ON p.user_id = u.id
		WHERE u.username = $1
	`, username), &p)
	return p, err
}
