package main

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/phrazzld/vocabweave-api/internal/domain/srs"
	"github.com/phrazzld/vocabweave-api/internal/platform/logger"
	"github.com/phrazzld/vocabweave-api/internal/platform/sqlite"
	"github.com/phrazzld/vocabweave-api/internal/service"
	"github.com/phrazzld/vocabweave-api/internal/service/progress"
	"github.com/phrazzld/vocabweave-api/internal/service/review"
	"github.com/spf13/cobra"
)

const dbEnvVar = "VOCABWEAVE_DB"

const (
	formatJSON = "json"
	formatText = "text"
)

// cli holds the flags and services shared by every command.
type cli struct {
	dbPath   string
	format   string
	logLevel string

	out    io.Writer
	errOut io.Writer
	now    func() time.Time

	db         *sql.DB
	vocabulary service.VocabularyService
	reviews    review.ReviewService
	progress   progress.ProgressService
}

func newCLI(out, errOut io.Writer) *cli {
	return &cli{out: out, errOut: errOut, now: time.Now}
}

// execute runs one command line and closes the database afterwards, even
// when the command fails.
func (c *cli) execute(args []string) error {
	root := c.rootCmd()
	root.SetArgs(args)
	defer func() {
		if err := c.close(); err != nil {
			fmt.Fprintf(c.errOut, "warning: close database: %v\n", err)
		}
	}()
	return root.Execute()
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "vocabctl",
		Short:         "Study vocabulary with spaced repetition",
		Long:          "Seeds the Oxford word list into a local database and schedules reviews from your grades.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.open(cmd)
		},
	}
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	root.PersistentFlags().StringVarP(&c.dbPath, "db", "d", "",
		"Database path (default: $"+dbEnvVar+" or ~/.vocabweave/vocab.db)")
	root.PersistentFlags().StringVarP(&c.format, "format", "f", formatText, "Output format: text or json")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")

	root.AddCommand(
		newSeedCmd(c),
		newNextCmd(c),
		newGradeCmd(c),
		newDueCmd(c),
		newLessonCmd(c),
		newStatsCmd(c),
	)
	return root
}

func (c *cli) resolveDBPath() (string, error) {
	if c.dbPath != "" {
		return c.dbPath, nil
	}
	if env := os.Getenv(dbEnvVar); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, ".vocabweave", "vocab.db"), nil
}

// open validates the flags and wires the services onto a SQLite database.
func (c *cli) open(cmd *cobra.Command) error {
	if c.format != formatText && c.format != formatJSON {
		return fmt.Errorf("unknown format %q: use text or json", c.format)
	}

	level, ok := logger.ParseLevel(c.logLevel)
	if !ok {
		return fmt.Errorf("unknown log level %q", c.logLevel)
	}
	log := logger.New(c.errOut, level, formatText)

	path, err := c.resolveDBPath()
	if err != nil {
		return err
	}

	db, err := sqlite.Open(cmd.Context(), path)
	if err != nil {
		return fmt.Errorf("open database %s: %w", path, err)
	}
	c.db = db

	items := sqlite.NewItemStore(db, log)
	states := sqlite.NewItemStateStore(db, log)
	logs := sqlite.NewReviewLogStore(db, log)

	scheduler, err := srs.NewDefaultService()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	c.vocabulary, err = service.NewVocabularyService(db, items, states, log)
	if err != nil {
		return err
	}
	c.reviews = review.NewReviewService(db, items, states, logs, scheduler, log, review.WithClock(c.now))
	c.progress = progress.NewProgressService(items, states, scheduler, c.now, log)

	log.Debug("database opened", slog.String("path", path))
	return nil
}

func (c *cli) close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}
