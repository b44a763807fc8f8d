package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/lcalzada-xor/fsguard/internal/adapters/sigdb"
)

func main() {
	seedFiles := flag.String("seed-file", "./configs/signatures.json", "Signature seed JSON file(s), comma separated")
	dbPath := flag.String("db-path", defaultDBPath(), "Path to the signature database")
	flag.Parse()

	log.Println("=== Signature Seed Loader ===")
	log.Printf("Seed file(s): %s", *seedFiles)
	log.Printf("Database: %s", *dbPath)

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o700); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	repo, err := sigdb.NewSQLiteRepository(*dbPath)
	if err != nil {
		log.Fatalf("Failed to create repository: %v", err)
	}
	defer repo.Close()

	loader := sigdb.NewSeedLoader(repo)
	ctx := context.Background()

	paths := strings.Split(*seedFiles, ",")
	if len(paths) == 1 {
		if _, err := loader.LoadFromFile(ctx, paths[0]); err != nil {
			log.Fatalf("Failed to load seed data: %v", err)
		}
	} else if loaded := loader.LoadFromMultipleFiles(ctx, paths); loaded == 0 {
		log.Fatalf("No signatures loaded")
	}

	count, _ := repo.Count(ctx)
	log.Printf("Database now contains %d signatures", count)
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "signatures.db"
	}
	return filepath.Join(home, ".fsguard", "signatures.db")
}
