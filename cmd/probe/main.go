package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"earthistory/internal/app"
	"earthistory/internal/config"
	"earthistory/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	topic := flag.String("topic", "", "Resolve a topic and list the events it would ingest")
	summary := flag.String("summary", "", "Fetch the Wikipedia page summary for a title")
	limit := flag.Int("n", 10, "Number of events to print")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	if *topic == "" && *summary == "" {
		log.Fatal("one of -topic or -summary is required")
	}

	cfg := config.Load()
	client := app.NewClient(cfg, nil, logger.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if *summary != "" {
		page, err := client.FetchPageSummary(ctx, *summary)
		if err != nil {
			log.Fatalf("Error fetching summary: %v", err)
		}
		if page == nil {
			fmt.Printf("No page (or a disambiguation page) for %q\n", *summary)
			return
		}
		fmt.Printf("Title: %s\n", page.Title)
		fmt.Printf("Description: %s\n", page.Description)
		fmt.Printf("Image: %s\n", page.ImageURL)
		fmt.Printf("Page: %s\n", page.PageURL)
		fmt.Printf("Word Count: %d\n", page.WordCount)
		fmt.Printf("Extract: %s\n", page.Extract)
		return
	}

	pipeline, err := app.NewPipeline(cfg, client, nil, logger.NewNop())
	if err != nil {
		log.Fatalf("Error building pipeline: %v", err)
	}
	res, err := pipeline.RunTopic(ctx, *topic)
	if err != nil {
		log.Fatalf("Error resolving topic: %v", err)
	}

	fmt.Printf("Topic: %s (%s) [%s]\n", res.Topic.Label, res.Topic.ID, res.Topic.Language)
	fmt.Printf("Rows: %d, unique events: %d, dropped: %v\n", res.Rows, len(res.Candidates), res.Dropped)
	for i, c := range res.Candidates {
		if i >= *limit {
			break
		}
		fmt.Printf("  %6d  %-12s %s\n", c.TimeStart, c.Category, c.Title)
	}
}
