// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/poiesic/sift"
	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/ingestion"
	"github.com/poiesic/sift/search"
	"github.com/poiesic/sift/storage"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	dbFlag := &cli.StringFlag{
		Name:    "db",
		Aliases: []string{"d"},
		Usage:   "Path to BadgerDB catalog directory",
		Value:   "./sift_db",
	}
	modeFlag := &cli.StringFlag{
		Name:    "mode",
		Aliases: []string{"m"},
		Usage:   "Keyword mode (eagle, fuzzy, greedy)",
		Value:   string(core.DefaultMode),
	}
	limitFlag := &cli.IntFlag{
		Name:    "limit",
		Aliases: []string{"n"},
		Usage:   "Maximum number of results, 0 for all",
		Value:   20,
	}
	explainFlag := &cli.BoolFlag{
		Name:  "explain",
		Usage: "Show which keywords matched which fields",
	}

	return &cli.App{
		Name:  "sift",
		Usage: "Multi-keyword search over item files and catalogs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "grep",
				Usage:     "Search an item file without a catalog",
				ArgsUsage: "FILE QUERY...",
				Action:    grepCommand,
				Flags:     []cli.Flag{modeFlag, limitFlag, explainFlag},
			},
			{
				Name:      "watch",
				Usage:     "Re-run a search whenever an item file changes",
				ArgsUsage: "FILE QUERY...",
				Action:    watchCommand,
				Flags:     []cli.Flag{modeFlag, limitFlag, explainFlag},
			},
			{
				Name:      "import",
				Usage:     "Import item files into the catalog",
				ArgsUsage: "FILE...",
				Action:    importCommand,
				Flags: []cli.Flag{
					dbFlag,
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of documents to add per transaction",
						Value: 500,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of files parsed concurrently",
						Value: 4,
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Report progress on stderr",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search the catalog",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags:     []cli.Flag{dbFlag, modeFlag, limitFlag, explainFlag},
			},
			{
				Name:   "list",
				Usage:  "List catalog documents in insertion order",
				Action: listCommand,
				Flags:  []cli.Flag{dbFlag},
			},
			{
				Name:      "delete",
				Usage:     "Delete catalog documents by key",
				ArgsUsage: "KEY...",
				Action:    deleteCommand,
				Flags:     []cli.Flag{dbFlag},
			},
		},
	}
}

type searchArgs struct {
	mode    core.Mode
	limit   int
	explain bool
	query   string
}

func parseSearchArgs(c *cli.Context, queryArgs []string) (*searchArgs, error) {
	mode, err := core.ParseMode(c.String("mode"))
	if err != nil {
		return nil, err
	}
	if c.Int("limit") < 0 {
		return nil, fmt.Errorf("limit must not be negative")
	}
	return &searchArgs{
		mode:    mode,
		limit:   c.Int("limit"),
		explain: c.Bool("explain"),
		query:   strings.Join(queryArgs, " "),
	}, nil
}

func grepCommand(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("usage: sift grep FILE QUERY...")
	}
	args, err := parseSearchArgs(c, c.Args().Slice()[1:])
	if err != nil {
		return err
	}

	searcher, err := search.NewSearcher[*core.Document](search.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	defer searcher.Release()

	return grepFile(c.Context, c.App.Writer, searcher, c.Args().First(), args)
}

func grepFile(ctx context.Context, w io.Writer, searcher *search.Searcher[*core.Document], path string, args *searchArgs) error {
	docs, err := ingestion.LoadFile(path)
	if err != nil {
		return err
	}

	results, err := searcher.Rank(ctx, docs, &search.Options[*core.Document]{
		Text: args.query,
		Mode: args.mode,
	})
	if err != nil {
		return err
	}
	if args.limit > 0 && len(results) > args.limit {
		results = results[:args.limit]
	}

	printResults(w, results, args.explain)
	return nil
}

func watchCommand(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("usage: sift watch FILE QUERY...")
	}
	args, err := parseSearchArgs(c, c.Args().Slice()[1:])
	if err != nil {
		return err
	}
	path := c.Args().First()

	searcher, err := search.NewSearcher[*core.Document](search.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	defer searcher.Release()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	run := func() {
		fmt.Fprintf(c.App.Writer, "== %s: %q (%s)\n", path, args.query, args.mode)
		if err := grepFile(ctx, c.App.Writer, searcher, path, args); err != nil {
			slog.Error("search failed", "path", path, "err", err)
		}
	}

	run()
	err = watchFile(ctx, path, run)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func openDatabase(c *cli.Context) (*sift.Database, error) {
	db, err := sift.NewDatabase(c.String("db"), sift.WithLogger(slog.Default()))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func importCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}
	if c.Int("batch-size") <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if c.Int("workers") <= 0 {
		return fmt.Errorf("workers must be greater than 0")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	opts := []ingestion.Option{
		ingestion.WithBatchSize(c.Int("batch-size")),
		ingestion.WithPoolSize(c.Int("workers")),
	}
	if c.Bool("progress") {
		opts = append(opts, ingestion.WithProgress(c.App.ErrWriter))
	}

	pipeline, err := db.NewIngestionPipeline(opts...)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	stats, err := pipeline.IngestFiles(c.Context, c.Args().Slice()...)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "files: %d, parsed: %d, added: %d, skipped: %d, invalid: %d (%s)\n",
		stats.Files, stats.Parsed, stats.Added, stats.Skipped, stats.Invalid, stats.Duration.Round(1e6))
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("a query is required")
	}
	args, err := parseSearchArgs(c, c.Args().Slice())
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	results, err := db.Search(c.Context, args.query, args.mode, args.limit)
	if err != nil {
		return err
	}

	printResults(c.App.Writer, results, args.explain)
	return nil
}

func listCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.DocumentRepository().ForEachDocument(c.Context, 256, func(batch []*core.Document) error {
		for _, doc := range batch {
			fmt.Fprintln(c.App.Writer, formatDocument(doc))
		}
		return nil
	})
}

func deleteCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one key is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := db.DocumentRepository()
	return repo.WithTransaction(c.Context, func(ctx context.Context) error {
		ids := make([]core.ID, 0, c.NArg())
		for _, key := range c.Args().Slice() {
			doc, err := repo.GetDocumentByKey(ctx, key)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return fmt.Errorf("no document with key %q", key)
				}
				return err
			}
			ids = append(ids, doc.Id)
		}
		if err := repo.DeleteDocuments(ctx, ids...); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "deleted %d documents\n", len(ids))
		return nil
	})
}

func printResults(w io.Writer, results []search.Result[*core.Document], explain bool) {
	for _, r := range results {
		fmt.Fprintln(w, formatDocument(r.Item))
		if !explain {
			continue
		}
		fmt.Fprintf(w, "    score %s\n", r.Score)
		for _, hit := range r.Hits {
			kind := "partial"
			if hit.Exact {
				kind = "exact"
			}
			fmt.Fprintf(w, "    %q %s match on field %d %q\n", hit.Keyword, kind, hit.FieldIndex, hit.Field.Text)
		}
	}
	fmt.Fprintf(w, "%d matches\n", len(results))
}

func formatDocument(doc *core.Document) string {
	var sb strings.Builder
	if doc.Key != "" {
		sb.WriteString(doc.Key)
		sb.WriteString(": ")
	}
	first := true
	for _, attr := range doc.Attributes {
		if core.IsIdentifierName(attr.Name) {
			continue
		}
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(attr.Name)
		sb.WriteByte('=')
		sb.WriteString(attr.Value)
	}
	return sb.String()
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
