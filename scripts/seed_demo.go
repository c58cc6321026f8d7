package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/feedbackforge/backend/internal/config"
	"github.com/feedbackforge/backend/internal/models"
	"github.com/feedbackforge/backend/internal/services"
)

// Seeds a local database with a few days of rated interactions so the
// dashboard and improvement cycle have something to chew on.
// Run: go run scripts/seed_demo.go [count]

var categories = []string{"weather", "billing", "account", "shipping", "general"}

var samplePrompts = map[string]string{
	"weather":  "What's the weather like in Oslo tomorrow?",
	"billing":  "Why was I charged twice this month?",
	"account":  "How do I reset my password?",
	"shipping": "Where is my order #4821?",
	"general":  "What are your opening hours?",
}

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := models.InitDB(&cfg.Database); err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	if err := models.AutoMigrate(); err != nil {
		fmt.Printf("Failed to migrate database: %v\n", err)
		os.Exit(1)
	}

	count := 100
	if len(os.Args) > 1 {
		if _, err := fmt.Sscanf(os.Args[1], "%d", &count); err != nil {
			fmt.Printf("Bad count %q: %v\n", os.Args[1], err)
			os.Exit(1)
		}
	}

	store := services.NewRecordStore(models.GetDB())
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now().UTC()

	created, rated := 0, 0
	for i := 0; i < count; i++ {
		category := categories[rng.Intn(len(categories))]
		rec, err := store.Append(services.AppendInput{
			Category:  category,
			Prompt:    samplePrompts[category],
			Response:  fmt.Sprintf("Sample response %d for %s.", i, category),
			Timestamp: now.Add(-time.Duration(rng.Intn(7*24)) * time.Hour),
		})
		if err != nil {
			fmt.Printf("Failed to append record: %v\n", err)
			os.Exit(1)
		}
		created++

		// Roughly 60% of interactions get rated; billing skews low so the
		// aggregator has a category to flag.
		if rng.Float64() < 0.4 {
			continue
		}
		rating := 3 + rng.Intn(3)
		if category == "billing" {
			rating = 1 + rng.Intn(2)
		}
		fb := services.FeedbackInput{Rating: rating}
		if rating <= 2 {
			fb.Suggestion = "A corrected answer the bot should have given."
			fb.FeedbackText = "The answer missed the point."
		}
		if err := store.AttachFeedback(rec.ID, fb); err != nil {
			fmt.Printf("Failed to attach feedback: %v\n", err)
			os.Exit(1)
		}
		rated++
	}

	fmt.Printf("Seeded %d interactions (%d rated) into %s\n", created, rated, cfg.Database.DSN)
}
