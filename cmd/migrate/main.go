package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"

	"nutritrack/internal/config"
	"nutritrack/internal/db"
)

// migrate aplica o revierte el esquema: `migrate up` o `migrate -steps 1 down`.
func main() {
	steps := flag.Int("steps", 1, "migrations to roll back with down")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	cmd := flag.Arg(0)
	switch cmd {
	case "", "up":
		if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatal(err)
		}
		log.Println("migrations applied")
	case "down":
		if err := db.RollbackMigrations(cfg.DatabaseURL, *steps); err != nil {
			log.Fatal(err)
		}
		log.Printf("rolled back %d migration(s)", *steps)
	default:
		log.Fatalf("unknown command %q (want up or down)", cmd)
	}
}
