package main

import (
	"database/sql"
	"log"
	"os"

	_ "github.com/lib/pq" // PostgreSQL driver
)

var db *sql.DB

func initDB() {
	// Get database URL from environment variable, fallback to default for development
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		connStr = "user=admin password=password dbname=leasybotdb sslmode=disable"
		log.Default().Println("Warning: DATABASE_URL not set, using default connection string")
	}

	var err error
	db, err = sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal("Error connecting to the database:", err)
	}
	err = db.Ping()
	if err != nil {
		log.Fatal("Cannot reach the database:", err)
	}
	log.Default().Println("Database connection established successfully")
}

// initListings warms the in-memory apartment table once at startup. The
// dataset is read-only for the lifetime of the process, so a load failure is
// reported and the server keeps running with an empty table.
func initListings() {
	table, err := loadListingTable(db)
	if err != nil {
		log.Println("Warning: could not load apartment listings, continuing with empty table:", err)
		listingTable = []Listing{}
		return
	}
	listingTable = table
	log.Printf("Loaded %d apartment listings", len(listingTable))
}
