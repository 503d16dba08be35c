// Seeder loads the JSON data files into Postgres so the server can run with
// DB_URL instead of the file store.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"vani-bank-backend/internal/bank"
	"vani-bank-backend/internal/db"
	"vani-bank-backend/internal/store"
)

func main() {
	dataDir := flag.String("data", "data", "directory holding the JSON seed files")
	migrationsDir := flag.String("migrations", "migrations", "directory holding SQL migrations")
	flag.Parse()

	_ = godotenv.Load()
	connString := os.Getenv("DB_URL")
	if connString == "" {
		log.Fatal("DB_URL is required")
	}

	database, err := db.New(connString)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer database.Close()
	if err := database.RunMigrations(*migrationsDir); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	ds := store.NewDatabaseStore(database)
	ctx := context.Background()

	var users map[string]bank.User
	mustReadJSON(filepath.Join(*dataDir, "users.json"), &users)
	for id, u := range users {
		user := u
		if err := ds.SaveUser(ctx, id, &user); err != nil {
			log.Fatalf("failed to seed user %s: %v", id, err)
		}
	}
	log.Printf("seeded %d users", len(users))

	var transactions map[string][]bank.Entry
	mustReadJSON(filepath.Join(*dataDir, "transactions.json"), &transactions)
	for accountID, entries := range transactions {
		if err := ds.SeedLedger(ctx, accountID, "transaction", entries); err != nil {
			log.Fatalf("failed to seed transactions for %s: %v", accountID, err)
		}
	}

	var charges map[string][]bank.Entry
	mustReadJSON(filepath.Join(*dataDir, "charges.json"), &charges)
	for accountID, entries := range charges {
		if err := ds.SeedLedger(ctx, accountID, "charge", entries); err != nil {
			log.Fatalf("failed to seed charges for %s: %v", accountID, err)
		}
	}

	var programs map[string]bank.Program
	mustReadJSON(filepath.Join(*dataDir, "loan_programs.json"), &programs)
	for name, p := range programs {
		if err := ds.SeedProgram(ctx, name, p); err != nil {
			log.Fatalf("failed to seed loan program %s: %v", name, err)
		}
	}
	log.Printf("seeded %d loan programs", len(programs))
}

func mustReadJSON(path string, v any) {
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("failed to read %s: %v", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		log.Fatalf("failed to parse %s: %v", path, err)
	}
}
