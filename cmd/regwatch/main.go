package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/regwatch/regwatch/internal/config"
	"github.com/regwatch/regwatch/internal/diff"
	"github.com/regwatch/regwatch/internal/fetch"
	"github.com/regwatch/regwatch/internal/ingest"
	"github.com/regwatch/regwatch/internal/log"
	"github.com/regwatch/regwatch/internal/review"
	"github.com/regwatch/regwatch/internal/search"
	"github.com/regwatch/regwatch/internal/store"
	"github.com/regwatch/regwatch/internal/web"
)

var cfg config.Config

func main() {
	log.Init()

	// Parse global flags
	globalFlags := flag.NewFlagSet("global", flag.ExitOnError)
	configFlag := globalFlags.String("config", "./regwatch.yaml", "Path to YAML config file")
	dataDirFlag := globalFlags.String("data-dir", "", "Directory for database and index files (overrides config)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Find where the command starts (skip global flags)
	commandIdx := 1
	for i := 1; i < len(os.Args); i++ {
		if !strings.HasPrefix(os.Args[i], "-") {
			commandIdx = i
			break
		}
	}

	if commandIdx > 1 {
		globalFlags.Parse(os.Args[1:commandIdx])
	}

	var err error
	cfg, err = config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if *dataDirFlag != "" {
		cfg.DataDir = *dataDirFlag
	}

	command := os.Args[commandIdx]
	args := os.Args[commandIdx+1:]

	switch command {
	case "serve":
		serveFlags := flag.NewFlagSet("serve", flag.ExitOnError)
		listen := serveFlags.String("listen", cfg.Listen, "Address to listen on")
		serveFlags.Parse(args)
		runServe(*listen)
	case "ingest":
		ingestFlags := flag.NewFlagSet("ingest", flag.ExitOnError)
		id := ingestFlags.String("id", "", "Regulation identifier (required)")
		title := ingestFlags.String("title", "", "Regulation title")
		url := ingestFlags.String("url", "", "Canonical regulation URL")
		file := ingestFlags.String("file", "-", "Content file, or - for stdin")
		fromURL := ingestFlags.Bool("fetch", false, "Fetch content from the regulation URL instead of a file")
		ingestFlags.Parse(args)

		if *id == "" {
			fmt.Println("Error: -id is required")
			fmt.Println("Usage: regwatch ingest -id=<id> [-title=<title>] [-url=<url>] [-file=<path>|-fetch]")
			os.Exit(1)
		}
		runIngest(*id, *title, *url, *file, *fromURL)
	case "list":
		runList()
	case "show":
		if len(args) < 1 {
			fmt.Println("Error: change id required")
			fmt.Println("Usage: regwatch show <change-id>")
			os.Exit(1)
		}
		runShow(args[0])
	case "search":
		searchFlags := flag.NewFlagSet("search", flag.ExitOnError)
		limit := searchFlags.Int("limit", 10, "Maximum number of results")
		searchFlags.Parse(args)

		if searchFlags.NArg() < 1 {
			fmt.Println("Error: search query required")
			fmt.Println("Usage: regwatch search [flags] <query>")
			os.Exit(1)
		}
		runSearch(strings.Join(searchFlags.Args(), " "), *limit)
	case "reindex":
		runReindex()
	case "stats":
		runStats()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("regwatch - track textual changes to regulatory documents")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  regwatch [global-flags] <command> [flags]")
	fmt.Println()
	fmt.Println("Global Flags:")
	fmt.Println("  --config=<path>    YAML config file (default: ./regwatch.yaml)")
	fmt.Println("  --data-dir=<dir>   Directory for database and index files")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve [flags]             Start the review web server")
	fmt.Println("  ingest [flags]            Record a regulation snapshot; detects changes")
	fmt.Println("  list                      Print changes detected inside the reporting window")
	fmt.Println("  show <change-id>          Print one change as a unified word diff")
	fmt.Println("  search [flags] <query>    Full-text search over current regulation content")
	fmt.Println("  reindex                   Rebuild the search index from the store")
	fmt.Println("  stats                     Show store and index statistics")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  regwatch ingest -id=osha-1910 -title=\"OSHA 1910\" -url=https://example.gov/1910 -file=1910.txt")
	fmt.Println("  regwatch ingest -id=osha-1910 -fetch -url=https://example.gov/1910")
	fmt.Println("  regwatch list")
	fmt.Println("  regwatch serve -listen=localhost:8080")
	fmt.Println("  regwatch search \"filing fee\"")
}

func openStore() *store.DB {
	db, err := store.Open(cfg.DBPath())
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	db.SetWindow(cfg.Window())
	return db
}

func runServe(listen string) {
	db := openStore()
	defer db.Close()

	idx, err := search.Open(cfg.IndexPath())
	if err != nil {
		log.Warnf("search index unavailable (%v), search disabled", err)
		idx = nil
	} else {
		defer idx.Close()
	}

	server, err := web.NewServer(review.NewService(db), db, idx)
	if err != nil {
		log.Fatalf("Error creating server: %v", err)
	}

	fmt.Printf("regwatch listening at http://%s\n", listen)
	if err := http.ListenAndServe(listen, server.Handler()); err != nil {
		log.Fatalf("Error starting server: %v", err)
	}
}

func runIngest(id, title, url, file string, fromURL bool) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Error creating data directory: %v", err)
	}

	db := openStore()
	defer db.Close()

	idx, err := search.Open(cfg.IndexPath())
	if err != nil {
		log.Fatalf("Error opening search index: %v", err)
	}
	defer idx.Close()

	ctx := context.Background()

	var content string
	switch {
	case fromURL:
		if url == "" {
			log.Fatalf("Error: -fetch requires -url")
		}
		content, err = fetch.NewClient().Fetch(ctx, url)
		if err != nil {
			log.Fatalf("Error fetching content: %v", err)
		}
	case file == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatalf("Error reading stdin: %v", err)
		}
		content = string(data)
	default:
		data, err := os.ReadFile(file)
		if err != nil {
			log.Fatalf("Error reading content file: %v", err)
		}
		content = string(data)
	}

	if title == "" {
		title = id
	}

	recorder := ingest.NewRecorder(db, idx)
	result, err := recorder.Record(ctx, &store.Regulation{ID: id, Title: title, URL: url}, content)
	if err != nil {
		log.Fatalf("Error recording snapshot: %v", err)
	}

	switch {
	case result.Unchanged:
		fmt.Printf("No change: content for %s matches the latest snapshot\n", id)
	case result.FirstSnapshot:
		fmt.Printf("Recorded first snapshot for %s (change %s)\n", id, result.ChangeID)
	default:
		fmt.Printf("Detected change for %s (change %s)\n", id, result.ChangeID)
	}
}

func runList() {
	db := openStore()
	defer db.Close()

	listing, err := review.NewService(db).ListCurrent(context.Background())
	if err != nil {
		log.Fatalf("Error listing changes: %v", err)
	}

	if len(listing.Changes) == 0 {
		fmt.Println("No changes in the current reporting window.")
		return
	}

	fmt.Printf("%d change(s), %d unreviewed:\n\n", len(listing.Changes), listing.Unreviewed)
	for _, c := range listing.Changes {
		marker := " "
		if !c.Reviewed {
			marker = "*"
		}
		fmt.Printf("%s %s  %s  %s\n", marker, c.DetectedAt.Format("2006-01-02 15:04"), c.ChangeID, c.RegulationTitle)
	}
	fmt.Println("\n* = unreviewed")
}

func runShow(changeID string) {
	db := openStore()
	defer db.Close()

	detail, err := review.NewService(db).ViewDetail(context.Background(), changeID)
	if err != nil {
		log.Fatalf("Error loading change: %v", err)
	}

	fmt.Printf("%s\n%s\nDetected: %s\n\n", detail.RegulationTitle, detail.RegulationURL,
		detail.DetectedAt.Format("2006-01-02 15:04"))

	for _, seg := range diff.Compute(detail.OldContent, detail.NewContent) {
		switch seg.Op {
		case diff.Removed:
			fmt.Printf("[-%s-]", seg.Text)
		case diff.Added:
			fmt.Printf("{+%s+}", seg.Text)
		default:
			fmt.Print(seg.Text)
		}
	}
	fmt.Println()
}

func runSearch(query string, limit int) {
	idx, err := search.Open(cfg.IndexPath())
	if err != nil {
		log.Fatalf("Error opening search index: %v", err)
	}
	defer idx.Close()

	results, err := idx.Search(query, limit)
	if err != nil {
		log.Fatalf("Error searching: %v", err)
	}

	if len(results) == 0 {
		fmt.Println("No results found")
		return
	}

	fmt.Printf("Found %d results:\n\n", len(results))
	for i, result := range results {
		fmt.Printf("%d. %s\n", i+1, result.Title)
		fmt.Printf("   URL: %s\n", result.URL)
		fmt.Printf("   Score: %.3f\n", result.Score)
		if snippets, ok := result.Fragments["Content"]; ok && len(snippets) > 0 {
			fmt.Printf("   Preview: %s\n", snippets[0])
		}
		fmt.Println()
	}
}

func runReindex() {
	db := openStore()
	defer db.Close()

	idx, err := search.Open(cfg.IndexPath())
	if err != nil {
		log.Fatalf("Error opening search index: %v", err)
	}
	defer idx.Close()

	if err := idx.Rebuild(context.Background(), db); err != nil {
		log.Fatalf("Error rebuilding index: %v", err)
	}

	count, err := idx.Count()
	if err != nil {
		log.Fatalf("Error getting index count: %v", err)
	}
	fmt.Printf("Reindex complete: %d regulations indexed\n", count)
}

func runStats() {
	db := openStore()
	defer db.Close()

	ctx := context.Background()

	regs, err := db.CountRegulations(ctx)
	if err != nil {
		log.Fatalf("Error counting regulations: %v", err)
	}
	total, unreviewed, err := db.CountChanges(ctx)
	if err != nil {
		log.Fatalf("Error counting changes: %v", err)
	}

	fmt.Println("=== Store Statistics ===")
	fmt.Printf("Regulations:        %d\n", regs)
	fmt.Printf("Changes:            %d\n", total)
	fmt.Printf("Unreviewed changes: %d\n", unreviewed)

	if idx, err := search.Open(cfg.IndexPath()); err == nil {
		defer idx.Close()
		if count, err := idx.Count(); err == nil {
			fmt.Printf("Indexed regulations: %d\n", count)
		}
	}
}
