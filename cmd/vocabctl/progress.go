package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/phrazzld/vocabweave-api/internal/platform/sqlite"
	"github.com/phrazzld/vocabweave-api/internal/service/progress"
	"github.com/spf13/cobra"
)

func newLessonCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "lesson <n>",
		Short: "Show progress through one lesson",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%w: %q", domain.ErrInvalidLesson, args[0])
			}

			summary, err := c.progress.LessonProgress(cmd.Context(), sqlite.LocalUserID, n)
			if err != nil {
				return err
			}

			return c.render(summary, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s (words %d-%d)\n  seen %d/%d, mastered %d\n",
					summary.Lesson.Title,
					summary.Lesson.WordStart,
					summary.Lesson.WordEnd,
					summary.Seen,
					summary.Total,
					summary.Mastered)
				return err
			})
		},
	}
}

type stats struct {
	Dashboard progress.Dashboard     `json:"dashboard"`
	Quests    []domain.QuestProgress `json:"quests"`
}

func newStatsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show overall progress and quests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dashboard, err := c.progress.Dashboard(cmd.Context(), sqlite.LocalUserID)
			if err != nil {
				return err
			}
			quests, err := c.progress.Quests(cmd.Context(), sqlite.LocalUserID)
			if err != nil {
				return err
			}

			return c.render(stats{Dashboard: dashboard, Quests: quests}, func(w io.Writer) error {
				return writeStats(w, dashboard, quests)
			})
		},
	}
}

func writeStats(w io.Writer, d progress.Dashboard, quests []domain.QuestProgress) error {
	fmt.Fprintf(w, "lesson %d of %d\n", d.CurrentLesson, domain.LessonCount)
	fmt.Fprintf(w, "words: %d seen, %d mastered (%.1f%%), %d due\n",
		d.SeenItems, d.MasteredItems, d.MasteredPercentage, d.DueCount)

	if len(d.Categories) > 0 {
		tw := newTable(w)
		fmt.Fprintln(tw, "\nCATEGORY\tSEEN\tMASTERED")
		for _, cat := range d.Categories {
			fmt.Fprintf(tw, "%s\t%d\t%d\n", cat.Category, cat.Seen, cat.Mastered)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintln(w, "\nquests:")
	for _, q := range quests {
		mark := " "
		if q.Completed {
			mark = "x"
		}
		if _, err := fmt.Fprintf(w, "  [%s] %s %d/%d\n", mark, q.Title, q.Progress, q.Target); err != nil {
			return err
		}
	}
	return nil
}
