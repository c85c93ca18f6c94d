package main

import (
	"flag"
	"log"

	"soulart_auction/internal/config"
	"soulart_auction/internal/database"
)

func main() {
	var action string
	flag.StringVar(&action, "action", "", "Migration action: up, down, or status")
	flag.Parse()

	if action == "" {
		log.Fatal("Please specify action: -action=up|down|status")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := database.RunMigrations(cfg, action); err != nil {
		log.Fatal("Migration failed:", err)
	}
}
