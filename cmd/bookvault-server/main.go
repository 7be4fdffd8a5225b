package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hallimar/bookvault/pkg/bookvault"
)

var client bookvault.Client

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	listenAddr := flag.String("listen", ":8080", "HTTP listen address")
	flag.Parse()

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

	var err error
	client, err = bookvault.NewClient(config)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	if err := client.Start(ctx); err != nil {
		log.Fatalf("Failed to start import drainer: %v", err)
	}
	defer client.Stop()

	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/books", booksHandler)
	http.HandleFunc("/books/isbn/", bookByISBNHandler)
	http.HandleFunc("/books/author/", booksByAuthorHandler)

	log.Printf("API endpoints:")
	log.Printf("  POST   /books                 - add a book")
	log.Printf("  GET    /books/isbn/{isbn}     - get a book by ISBN")
	log.Printf("  PATCH  /books/isbn/{isbn}     - update a book")
	log.Printf("  DELETE /books/isbn/{isbn}     - remove a book")
	log.Printf("  GET    /books/author/{author} - list books by author")
	log.Printf("  GET    /health                - health check")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting HTTP server on %s", *listenAddr)
		if err := http.ListenAndServe(*listenAddr, nil); err != nil {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-sigChan
	log.Println("Received shutdown signal, stopping...")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"drainer": map[string]interface{}{
			"running": client.IsRunning(),
		},
	})
}

func booksHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var book bookvault.Book
	if err := json.NewDecoder(r.Body).Decode(&book); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	if err := client.Catalog().Add(r.Context(), book); err != nil {
		switch {
		case errors.Is(err, bookvault.ErrDuplicateISBN):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, bookvault.ErrMissingColumn):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, book)
}

func bookByISBNHandler(w http.ResponseWriter, r *http.Request) {
	isbn := strings.TrimPrefix(r.URL.Path, "/books/isbn/")
	if isbn == "" {
		http.Error(w, "ISBN required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		book, err := client.Catalog().GetByISBN(r.Context(), isbn)
		if err != nil {
			writeCatalogError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, book)

	case http.MethodPatch:
		var updates map[string]string
		if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
			http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
			return
		}
		if err := client.Catalog().Update(r.Context(), isbn, updates); err != nil {
			writeCatalogError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})

	case http.MethodDelete:
		if err := client.Catalog().Remove(r.Context(), isbn); err != nil {
			writeCatalogError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func booksByAuthorHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	author := strings.TrimPrefix(r.URL.Path, "/books/author/")
	if author == "" {
		http.Error(w, "Author required", http.StatusBadRequest)
		return
	}

	books, err := client.Catalog().ListByAuthor(r.Context(), author)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

func writeCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, bookvault.ErrBookNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, bookvault.ErrDuplicateISBN):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, bookvault.ErrUnknownColumn), errors.Is(err, bookvault.ErrMissingColumn):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
