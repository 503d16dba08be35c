package main

import (
	"fmt"
	"log"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"vani-bank-backend/internal/bank"
	"vani-bank-backend/internal/config"
	"vani-bank-backend/internal/db"
	"vani-bank-backend/internal/server"
	"vani-bank-backend/internal/store"
)

func main() {
	cfg := config.Load()

	var st bank.Store
	if cfg.DatabaseURL != "" {
		database, err := db.New(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer database.Close()
		if err := database.RunMigrations("./migrations"); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		log.Println("using database-backed store")
		st = store.NewDatabaseStore(database)
	} else {
		fs, err := store.OpenFileStore(cfg.DataDir)
		if err != nil {
			log.Fatalf("failed to open file store: %v", err)
		}
		log.Printf("using file-backed store in %s", cfg.DataDir)
		st = fs
	}

	client := openai.NewClient(cfg.OpenAIAPIKey)
	oracle, err := bank.LoadLLMOracle(cfg.IntentSpecPath, client, cfg.Model)
	if err != nil {
		log.Fatalf("failed to load intent spec: %v", err)
	}

	s := server.NewServer(cfg, st, oracle)
	addr := ":" + cfg.Port
	fmt.Printf("VANI server listening on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, s.Router()))
}
