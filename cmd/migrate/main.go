// Command migrate upgrades a legacy users.json (bare uid -> api key
// strings) to the structured document format, and can optionally copy
// the result into the sqlite backend.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/mataroa-tools/matabot/internal/store"
)

func main() {
	dir := flag.String("dir", defaultDir(), "state directory holding users.json")
	toSQLite := flag.Bool("to-sqlite", false, "also copy the records into the sqlite backend")
	flag.Parse()

	fs := store.NewFileStore(*dir)
	if err := fs.Load(); err != nil {
		log.Fatalf("Error loading users file: %v", err)
	}
	// Load normalizes legacy entries; saving rewrites them structured.
	if err := fs.Save(); err != nil {
		log.Fatalf("Error rewriting users file: %v", err)
	}
	log.Printf("Rewrote %s with %d user(s)", filepath.Join(*dir, "users.json"), len(fs.All()))

	if !*toSQLite {
		return
	}
	sq, err := store.NewSQLiteStore(*dir)
	if err != nil {
		log.Fatalf("Error opening sqlite store: %v", err)
	}
	defer sq.Close()
	for id, rec := range fs.All() {
		sq.Put(id, rec)
	}
	sq.SetAllowlistIDs(fs.AllowlistIDs())
	if err := sq.Save(); err != nil {
		log.Fatalf("Error writing sqlite store: %v", err)
	}
	log.Printf("Copied %d user(s) into users.db", len(fs.All()))
}

func defaultDir() string {
	if v := os.Getenv("MATAROA_BOT_DIR"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".config", "mataroa-bot")
}
