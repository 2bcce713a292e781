package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
)

// JWT secret from environment variable or fallback
func getJWTSecret() []byte {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		return []byte(secret)
	}
	return []byte("your_secret_key_please_change_in_production")
}

var jwtSecret = getJWTSecret()

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	jwtSecret = getJWTSecret()

	initDB()
	initListings()

	mux := http.NewServeMux()

	// Core auth & user endpoints
	mux.Handle("/register", registerHandler(db))
	mux.Handle("/login", loginHandler(db))
	mux.Handle("/me", meHandler(db))
	mux.Handle("/me/profile", meProfileHandler(db))
	mux.Handle("/me/sample", meSampleHandler(db))

	// Apartment search & roommate matching
	mux.Handle("/apartments", apartmentsHandler(db))
	mux.Handle("/roommates/matches", roommateMatchesHandler(db))
	mux.Handle("/roommates/simulate", simulateConversationHandler(db))

	// WebSocket endpoint for the LeasyBot conversation
	mux.Handle("/ws/chat", wsChatHandler(db))

	// Health check endpoint for Docker
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Default().Println("Starting LeasyBot backend on port " + port + "...")
	http.ListenAndServe(":"+port, withCORS(mux))
}
