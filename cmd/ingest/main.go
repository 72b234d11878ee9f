package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"lolstats/internal/export"
	"lolstats/internal/ingest"
	"lolstats/internal/lcu"
	"lolstats/internal/mappings"
	"lolstats/internal/store"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env - try a few locations so the tool works from repo root or cmd dir
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			fmt.Printf("Loaded .env from: %s\n", path)
			break
		}
	}

	pageSize := flag.Int("page-size", lcu.DefaultPageSize, "History page size")
	workers := flag.Int("workers", ingest.DefaultWorkerCount, "Detail resolution workers")
	exportDir := flag.String("export-dir", "exports", "Directory for CSV exports")
	command := flag.String("run", "", "Run one command non-interactively (all, solo, aram, duel, status, clear, export)")
	flag.Parse()

	ctx := ingest.SetupSignalHandler()

	st, err := openStore(ctx)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	client := lcu.NewClient()
	if err := client.Connect(ctx); err != nil {
		log.Fatalf("Failed to connect to League client: %v", err)
	}

	summoner, err := client.GetCurrentSummoner(ctx)
	if err != nil {
		log.Fatalf("Failed to get current summoner: %v", err)
	}
	fmt.Printf("Logged in as %s\n", summoner.Name())

	queues := mappings.NewQueueMap()
	if err := queues.Load(ctx); err == nil {
		fmt.Println("[Mappings] Queue map loaded")
	}

	app := &app{
		client:    client,
		store:     st,
		queues:    queues,
		summoner:  summoner,
		pageSize:  *pageSize,
		workers:   *workers,
		exportDir: *exportDir,
	}

	if *command != "" {
		if err := app.dispatch(ctx, *command); err != nil {
			log.Fatalf("Command %q failed: %v", *command, err)
		}
		return
	}

	app.shell(ctx)
}

func openStore(ctx context.Context) (store.Store, error) {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		fmt.Println("[Store] Using Postgres backend")
		return store.OpenPostgres(ctx, url)
	}

	path := os.Getenv("SQLITE_PATH")
	if path == "" {
		path = "lolstats.db"
	}
	fmt.Printf("[Store] Using SQLite backend: %s\n", path)
	return store.OpenSQLite(ctx, path)
}

type app struct {
	client    *lcu.Client
	store     store.Store
	queues    *mappings.QueueMap
	summoner  *lcu.Summoner
	pageSize  int
	workers   int
	exportDir string
}

func (a *app) shell(ctx context.Context) {
	fmt.Println("Commands: all, solo, aram, duel, status, clear, export, watch, quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		fmt.Print(">>> ")
		if !scanner.Scan() {
			return
		}
		cmd := strings.TrimSpace(scanner.Text())
		if cmd == "" {
			continue
		}
		if cmd == "quit" {
			return
		}

		if err := a.dispatch(ctx, cmd); err != nil {
			if ctx.Err() != nil {
				return
			}
			fmt.Printf("Command %q failed: %v\n", cmd, err)
		}
	}
}

func (a *app) dispatch(ctx context.Context, cmd string) error {
	switch cmd {
	case "all":
		return a.ingest(ctx, nil)
	case "solo":
		return a.ingest(ctx, ingest.QueueFilter(mappings.QueueRankedSolo))
	case "aram":
		return a.ingest(ctx, ingest.QueueFilter(mappings.QueueARAM))
	case "duel":
		return a.ingest(ctx, ingest.QueueFilter(mappings.QueueArena))
	case "status":
		return a.status(ctx)
	case "clear":
		return a.clear(ctx)
	case "export":
		return a.export(ctx)
	case "watch":
		return a.watch(ctx)
	default:
		fmt.Println("Unknown command. Commands: all, solo, aram, duel, status, clear, export, watch, quit")
		return nil
	}
}

func (a *app) ingest(ctx context.Context, filter func(lcu.MatchSummary) bool) error {
	pipeline := ingest.New(a.client, ingest.NewResolver(a.client), a.store, ingest.Config{
		PageSize: a.pageSize,
		Workers:  a.workers,
	})
	pipeline.OnProgress = func(done, fallback, failed int) {
		if done%10 == 0 {
			fmt.Printf("  processed %d matches (%d fallback, %d failed)\n", done, fallback, failed)
		}
	}

	report, err := pipeline.Run(ctx, a.summoner.PUUID, filter)
	printReport(report)
	return err
}

func printReport(r *ingest.RunReport) {
	fmt.Println("=== Ingestion Complete ===")
	fmt.Printf("Matches ingested: %d\n", r.Ingested)
	fmt.Printf("Matches fallback: %d\n", r.Fallback)
	fmt.Printf("Matches failed:   %d\n", r.Failed)
	fmt.Printf("Rows inserted:    %s\n", r.Inserted)
	if r.FetchErr != nil {
		fmt.Printf("Pagination stopped early: %v\n", r.FetchErr)
	}
	for _, f := range r.Failures {
		fmt.Printf("  failed: %s\n", f)
	}
}

func (a *app) status(ctx context.Context) error {
	counts, err := a.store.Status(ctx)
	if err != nil {
		return err
	}

	tables := make([]string, 0, len(counts))
	for table := range counts {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	for _, table := range tables {
		fmt.Printf("%s: %d rows\n", table, counts[table])
	}
	return nil
}

func (a *app) clear(ctx context.Context) error {
	if err := a.store.Clear(ctx); err != nil {
		return err
	}
	fmt.Println("All tables cleared")
	return nil
}

func (a *app) export(ctx context.Context) error {
	counts, err := export.Tables(ctx, a.store, a.exportDir)
	if err != nil {
		return err
	}
	for table, n := range counts {
		fmt.Printf("Exported %s (%d rows)\n", table, n)
	}
	return nil
}

// watch subscribes to LCU gameflow events and re-runs ingestion each time a
// game ends, until interrupted.
func (a *app) watch(ctx context.Context) error {
	creds := a.client.GetCredentials()
	if creds == nil || creds.Port == "" {
		return fmt.Errorf("no LCU credentials; watch requires a lockfile connection")
	}

	trigger := make(chan struct{}, 1)

	ws := lcu.NewWebSocketClient()
	ws.OnPhaseChange(func(phase string) {
		if phase == "EndOfGame" {
			select {
			case trigger <- struct{}{}:
			default:
			}
		}
	})

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go ws.Watch(watchCtx, creds)

	fmt.Println("Watching for game completion (Ctrl-C to stop)...")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-trigger:
			fmt.Println("[Watch] Game ended, ingesting latest matches...")
			if err := a.ingest(ctx, nil); err != nil {
				return err
			}
		}
	}
}
