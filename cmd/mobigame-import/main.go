// Command mobigame-import loads a question file into the question bank.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/bloops-games/mobigame/internal/database"
	questionDb "github.com/bloops-games/mobigame/internal/database/question/database"
	"github.com/bloops-games/mobigame/internal/logging"
	"github.com/bloops-games/mobigame/internal/questionbank"
	"github.com/bloops-games/mobigame/internal/shutdown"
	"github.com/enescakir/emoji"
	"github.com/kelseyhightower/envconfig"
)

func main() {
	var (
		filename string
		verbose  bool
	)
	flag.StringVar(&filename, "filename", "", "text file to read")
	flag.BoolVar(&verbose, "verbose", false, "print every level and question")
	flag.Parse()

	if filename == "" {
		_, _ = fmt.Fprintln(os.Stderr, "Please provide --filename")
		os.Exit(2)
	}

	ctx, done := shutdown.New()
	defer done()

	config := database.Config{}
	if err := envconfig.Process("", &config); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "processing the config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(false).Named("mobigame-import")
	ctx = logging.WithLogger(ctx, logger)

	db, err := database.NewFromEnv(ctx, &config)
	if err != nil {
		logger.Fatalf("new database from env: %v", err)
	}

	err = run(ctx, os.Stdout, filename, verbose, questionDb.New(db, nil))
	_ = db.Close(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%s %v\n", emoji.CrossMark, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer, filename string, verbose bool, bank *questionDb.DB) error {
	_, _ = fmt.Fprintf(w, "%s Importing questions from %s\n", emoji.CardIndex, filename)

	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("open question file: %w", err)
	}
	defer f.Close()

	parser, err := questionbank.Parse(f)
	if err != nil {
		return err
	}

	if verbose {
		if err := parser.Print(w); err != nil {
			return err
		}
	}
	if err := parser.Summary(w); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "%s Checking imports ...\n", emoji.Gear)
	if err := parser.Check(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "%s Saving questions, answers and levels ...\n", emoji.Rocket)
	if err := bank.Import(ctx, parser.Levels(), parser.Entries()); err != nil {
		return fmt.Errorf("import: %w", err)
	}

	levels, err := bank.Levels(ctx)
	if err != nil {
		return fmt.Errorf("levels: %w", err)
	}

	_, _ = fmt.Fprintf(w, "%s Done, the bank holds %d levels\n", emoji.CheckMarkButton, len(levels))
	return nil
}
