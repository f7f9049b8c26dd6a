package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"photo-jobs/internal/database"
	"photo-jobs/internal/jobs"
	"photo-jobs/internal/photojobs"

	"golang.org/x/term"
)

const (
	// Default timeout for database operations
	defaultTimeout = 30 * time.Second
	// Default database directory path
	defaultDatabaseDir = "/database"
)

var knownTypes = map[string]bool{
	photojobs.TypeHash:         true,
	photojobs.TypeThumbnail:    true,
	photojobs.TypeSyncMetadata: true,
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	databaseDir := os.Getenv("DATABASE_DIR")
	if databaseDir == "" {
		databaseDir = defaultDatabaseDir
	}
	dbPath := filepath.Join(databaseDir, "photos.db")

	db, err := database.New(ctx, dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to database: %v\n", err)
		fmt.Fprintf(os.Stderr, "Make sure DATABASE_DIR is set correctly (current: %s)\n", databaseDir)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	ctx, cancelTimeout := context.WithTimeout(ctx, defaultTimeout)
	defer cancelTimeout()

	table := term.IsTerminal(int(os.Stdout.Fd()))
	store := db.Jobs()

	switch command {
	case "list":
		err = listJobs(ctx, store, os.Stdout, table)
	case "delete":
		if len(os.Args) < 3 {
			printUsage()
			os.Exit(1)
		}
		err = deleteJob(ctx, store, os.Args[2], os.Stdout)
	case "types":
		err = countTypes(ctx, store, os.Stdout, table)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitizeCommand(command))
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// jobStore is the part of database.JobStore the commands use.
type jobStore interface {
	AllPending(ctx context.Context) ([]jobs.Record, error)
	Delete(ctx context.Context, id int64) error
}

type jobRow struct {
	ID       int64      `json:"id"`
	Type     string     `json:"type"`
	Options  string     `json:"options"`
	Priority string     `json:"priority"`
	RunAt    *time.Time `json:"runAt,omitempty"`
}

type typeRow struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
	Known bool   `json:"known"`
}

func listJobs(ctx context.Context, store jobStore, w io.Writer, table bool) error {
	recs, err := store.AllPending(ctx)
	if err != nil {
		return fmt.Errorf("loading jobs: %w", err)
	}

	rows := make([]jobRow, 0, len(recs))
	for _, rec := range recs {
		row := jobRow{ID: rec.ID, Type: rec.Type, Options: rec.Options, Priority: rec.Priority.String()}
		if !rec.RunAt.IsZero() {
			runAt := rec.RunAt
			row.RunAt = &runAt
		}
		rows = append(rows, row)
	}

	if !table {
		return writeJSON(w, rows)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tOPTIONS\tPRIORITY\tRUN AT")
	for _, row := range rows {
		runAt := "-"
		if row.RunAt != nil {
			runAt = row.RunAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", row.ID, row.Type, row.Options, row.Priority, runAt)
	}
	return tw.Flush()
}

func deleteJob(ctx context.Context, store jobStore, arg string, w io.Writer) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid job id %q", sanitizeCommand(arg))
	}
	if err := store.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting job %d: %w", id, err)
	}
	fmt.Fprintf(w, "Deleted job %d\n", id)
	return nil
}

func countTypes(ctx context.Context, store jobStore, w io.Writer, table bool) error {
	recs, err := store.AllPending(ctx)
	if err != nil {
		return fmt.Errorf("loading jobs: %w", err)
	}

	counts := make(map[string]int)
	for t := range knownTypes {
		counts[t] = 0
	}
	for _, rec := range recs {
		counts[rec.Type]++
	}

	rows := make([]typeRow, 0, len(counts))
	for t, n := range counts {
		rows = append(rows, typeRow{Type: t, Count: n, Known: knownTypes[t]})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Type < rows[j].Type })

	if !table {
		return writeJSON(w, rows)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tSTORED\tKNOWN")
	for _, row := range rows {
		known := "yes"
		if !row.Known {
			known = "no (skipped at startup)"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", row.Type, row.Count, known)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// sanitizeCommand returns a safe representation of user input for display.
// Any character that is not alphanumeric, a hyphen, or an underscore is
// replaced with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage() {
	fmt.Println("Photo Jobs Job Store Inspector")
	fmt.Println("")
	fmt.Println("Usage: jobctl <command>")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list         - List stored jobs")
	fmt.Println("  delete <id>  - Delete a stored job")
	fmt.Println("  types        - Count stored jobs per type")
	fmt.Println("")
	fmt.Println("Environment:")
	fmt.Printf("  DATABASE_DIR - Path to database directory (default: %s)\n", defaultDatabaseDir)
}
