package main

import (
	"database/sql"
	"net/http"
	"sort"
)

// compatibilityScore counts, over a fixed ordered list of five dimensions,
// how many of the candidate's raw profile values exactly equal the
// requester's stored preference values:
//
//	1. smoking habit      vs. preferred smoking tolerance
//	2. has-pet            vs. preferred pet tolerance
//	3. school year        vs. preferred school year
//	4. sleeping habit     vs. preferred sleeping habit
//	5. guest preference   vs. preferred guest behavior
//
// Comparison is literal string equality. A preference of "Any" is not a
// wildcard: it matches only candidates whose field is literally "Any".
func compatibilityScore(prefs RoommatePreferences, candidate Profile) int {
	score := 0
	if candidate.SmokingHabits == prefs.Smoking {
		score++
	}
	if hasPetAnswer(candidate.HasPet) == prefs.Pets {
		score++
	}
	if candidate.SchoolYear == prefs.SchoolYear {
		score++
	}
	if candidate.SleepingHabits == prefs.Sleeping {
		score++
	}
	if candidate.GuestPreferences == prefs.Guests {
		score++
	}
	return score
}

// hasPetAnswer maps the boolean pet flag onto the "Yes"/"No" vocabulary the
// preference form uses, so the pet dimension compares like the other four.
func hasPetAnswer(hasPet bool) string {
	if hasPet {
		return "Yes"
	}
	return "No"
}

// matchRoommates scores every opted-in candidate against the requester's
// stored preferences and returns them ranked by score, descending. The sort
// is stable: equal scores keep the input order. Candidates with score 0 are
// included; displaying them is the caller's decision. The requester is never
// part of the result.
func matchRoommates(requester Profile, profiles []Profile) []MatchResult {
	results := make([]MatchResult, 0, len(profiles))
	for _, c := range profiles {
		if c.UserID == requester.UserID {
			continue
		}
		if !c.LookingForRoommate {
			continue
		}
		results = append(results, MatchResult{
			Username: c.Username,
			Score:    compatibilityScore(requester.RoommatePrefs, c),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// loadProfilesForMatching returns every user's profile in user-id order, so
// the matcher's tie-breaking order is the store's insertion order.
func loadProfilesForMatching(db *sql.DB) ([]Profile, error) {
	rows, err := db.Query(`
		SELECT ` + profileColumns + `
		FROM users u
		LEFT JOIN profiles p ON p.user_id = u.id
		ORDER BY u.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		var p Profile
		if err := scanProfile(rows, &p); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// GET /roommates/matches - ranked compatibility list for the caller
func roommateMatchesHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		userID := r.Context().Value(userIDKey).(int)

		requester, err := fetchProfile(db, userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		// Gate by opt-in: matching needs stated preferences
		if !requester.LookingForRoommate {
			writeError(w, http.StatusForbidden, "no_roommate_preferences")
			return
		}

		profiles, err := loadProfilesForMatching(db)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}

		matches := matchRoommates(requester, profiles)
		writeJSON(w, http.StatusOK, map[string][]MatchResult{"matches": matches})
	})
}
