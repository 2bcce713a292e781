package main

// Profile represents a user's stored profile. Profiles are edited wholesale:
// every field is overwritten together on save, there is no partial diffing.
type Profile struct {
	UserID   int    `json:"-"`
	Username string `json:"username"`

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

	// Roommate-seeking fields; meaningful only when LookingForRoommate is set.
	LookingForRoommate bool                `json:"looking_for_roommate"`
	RoommatePrefs      RoommatePreferences `json:"roommate_preferences"`
}

// RoommatePreferences holds the requester-side values the matcher compares
// candidate profile fields against, one per scoring dimension.
type RoommatePreferences struct {
	Smoking    string `json:"smoking"`
	Pets       string `json:"pets"`
	SchoolYear string `json:"school_year"`
	Sleeping   string `json:"sleeping"`
	Guests     string `json:"guests"`
}

// Listing is one row of the apartment dataset. Lat/Lon are nil for rows
// loaded without coordinates; such rows stay in tabular results but are
// excluded from any map-producing step.
type Listing struct {
	ID          int      `json:"id"`
	Cost        float64  `json:"cost"`
	Bedrooms    int      `json:"bedrooms"`
	PetsAllowed bool     `json:"pets_allowed"`
	Parking     bool     `json:"parking"`
	Gym         bool     `json:"gym"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
}

// MatchResult pairs a candidate username with its compatibility score.
// Computed fresh per request, never persisted.
type MatchResult struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}
