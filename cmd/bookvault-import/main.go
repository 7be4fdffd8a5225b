package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hallimar/bookvault/internal/database"
	"github.com/hallimar/bookvault/pkg/bookvault"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	filePath := flag.String("file", "", "delimited catalog file to import")
	separator := flag.String("sep", "", "field separator (overrides config)")
	printDDL := flag.Bool("print-ddl", false, "print the schema DDL and exit")
	flag.Parse()

	if *printDDL {
		for _, stmt := range database.EnsureSchemaStatements() {
			fmt.Println(stmt + ";")
		}
		return
	}

	if *filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	config := bookvault.DefaultConfig()
	config.Database.Database = "bookvault"
	config.Database.Username = "root"
	config.Database.Password = "password"

	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			log.Fatalf("Failed to read config file: %v", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			log.Fatalf("Failed to parse config file: %v", err)
		}
	}
	if *separator != "" {
		config.Import.Separator = *separator
	}

	client, err := bookvault.NewClient(config)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	count, err := client.Importer().ImportFile(ctx, *filePath)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	log.Printf("Enqueued %d books, draining to database...", count)

	if err := client.Start(ctx); err != nil {
		log.Fatalf("Failed to start drainer: %v", err)
	}
	defer client.Stop()

	// Wait for the queue to empty, then give the in-flight batch a
	// moment to commit.
	for client.QueueSize() > 0 {
		time.Sleep(200 * time.Millisecond)
	}
	time.Sleep(500 * time.Millisecond)

	log.Printf("Import complete: %d books", count)
}
