package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-quote/internal/catalog"
	"github.com/noah-isme/backend-quote/internal/obs"
	"github.com/noah-isme/backend-quote/internal/quote"
	"github.com/noah-isme/backend-quote/internal/session"
	"github.com/noah-isme/backend-quote/internal/snapshot"
)

const usage = `usage: quotectl [flags] <command> [args]

commands:
  show                 print the current quote
  hydrate              hydrate the session (use -product to preselect)
  apply '<action>'     dispatch a {"type": ..., "payload": ...} action
  reset                reset the quote and clear its snapshot
  products             print the catalog product ids
`

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dir := flag.String("dir", envOr("QUOTE_DIR", ".quotes"), "directory holding file snapshots")
	redisURL := flag.String("redis", os.Getenv("REDIS_URL"), "redis url; overrides -dir when set")
	sessionID := flag.String("session", "local", "session id")
	catalogPath := flag.String("catalog", os.Getenv("CATALOG_PATH"), "catalog YAML file; empty uses the bundled tables")
	product := flag.String("product", "", "product id to preselect on hydrate")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage); flag.PrintDefaults() }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger := obs.NewLoggerTo(os.Stderr, "console", level)

	tables, err := catalog.Load(*catalogPath)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}
	if flag.Arg(0) == "products" {
		for _, p := range tables.Definition().Products {
			fmt.Println(p.ID)
		}
		return
	}

	store, closeStore := openStore(*dir, *redisURL)
	defer closeStore()

	registry := session.NewRegistry(session.RegistryConfig{
		Machine: quote.NewMachine(tables),
		Store:   store,
		Logger:  logger,
	})
	p := registry.Get(*sessionID)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var q quote.Quote
	switch cmd := flag.Arg(0); cmd {
	case "show":
		q, _ = p.Hydrate(ctx, "")
	case "hydrate":
		var fresh bool
		q, fresh = p.Hydrate(ctx, *product)
		log.Printf("Session %s hydrated=%t", p.ID(), fresh)
	case "apply":
		if flag.NArg() < 2 {
			log.Fatal("apply needs an action JSON argument")
		}
		action, err := quote.DecodeAction([]byte(flag.Arg(1)))
		if err != nil {
			log.Fatalf("Invalid action: %v", err)
		}
		p.Hydrate(ctx, "")
		q = p.Dispatch(ctx, action)
	case "reset":
		p.Hydrate(ctx, "")
		q = p.Dispatch(ctx, quote.ResetQuote{})
	default:
		log.Fatalf("Unknown command %q", cmd)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(q); err != nil {
		log.Fatalf("Failed to write quote: %v", err)
	}
}

func openStore(dir, redisURL string) (snapshot.Store, func()) {
	if strings.TrimSpace(redisURL) != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Fatalf("Failed to parse REDIS_URL: %v", err)
		}
		client := redis.NewClient(opts)
		return snapshot.NewRedisStore(client, 0), func() { _ = client.Close() }
	}
	fs, err := snapshot.NewFileStore(dir)
	if err != nil {
		log.Fatalf("Failed to open snapshot dir: %v", err)
	}
	return fs, func() {}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
