package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/phrazzld/vocabweave-api/internal/platform/sqlite"
	"github.com/phrazzld/vocabweave-api/internal/service/review"
	"github.com/spf13/cobra"
)

func newNextCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Show the next item to review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			next, err := c.reviews.GetNextItem(cmd.Context(), sqlite.LocalUserID)
			if errors.Is(err, review.ErrNoItemsDue) {
				return c.render(struct {
					Item *review.ReviewItem `json:"item"`
				}{}, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, "nothing to review right now")
					return err
				})
			}
			if err != nil {
				return err
			}

			return c.render(struct {
				Item *review.ReviewItem `json:"item"`
			}{Item: next}, func(w io.Writer) error {
				return writeReviewItem(w, *next)
			})
		},
	}
}

func newGradeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "grade <item-id> <again|hard|good|easy>",
		Short: "Record how well you recalled an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("%w: %q", domain.ErrInvalidID, args[0])
			}
			grade, err := domain.ParseGrade(args[1])
			if err != nil {
				return err
			}

			state, err := c.reviews.SubmitGrade(cmd.Context(), sqlite.LocalUserID, itemID, grade)
			if err != nil {
				return err
			}

			return c.render(state, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "graded %s: stability %.1f days, difficulty %.1f, next review %s\n",
					grade, state.Stability, state.Difficulty, formatDue(state.NextReviewAt))
				return err
			})
		},
	}
}

func newDueCmd(c *cli) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "due",
		Short: "List items that are due, most forgotten first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 1 {
				return fmt.Errorf("limit must be positive, got %d", limit)
			}

			due, err := c.reviews.ListDue(cmd.Context(), sqlite.LocalUserID, limit)
			if err != nil {
				return err
			}
			if due == nil {
				due = []review.ReviewItem{}
			}

			return c.render(due, func(w io.Writer) error {
				if len(due) == 0 {
					_, err := fmt.Fprintln(w, "nothing is due")
					return err
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "ID\tWORD\tTRANSLATION\tLESSON\tRECALL\tDUE")
				for _, ri := range due {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.0f%%\t%s\n",
						ri.Item.ID,
						ri.Item.Text,
						ri.Item.Translation,
						lessonLabel(ri.Item),
						ri.Retrievability*100,
						formatDue(ri.DueAt))
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of items to list")
	return cmd
}
