package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/phrazzld/vocabweave-api/internal/service/review"
)

// render writes v as indented JSON, or calls text for the text format.
func (c *cli) render(v any, text func(w io.Writer) error) error {
	if c.format == formatJSON {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return text(c.out)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func lessonLabel(item *domain.VocabularyItem) string {
	if n, ok := item.Lesson(); ok {
		return fmt.Sprintf("lesson %d", n)
	}
	return "custom"
}

func formatDue(t *time.Time) string {
	if t == nil {
		return "new"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func writeReviewItem(w io.Writer, ri review.ReviewItem) error {
	_, err := fmt.Fprintf(w, "%s\n  %s = %s\n  %s, %s, recall %.0f%%, reviews %d\n",
		ri.Item.ID,
		ri.Item.Text,
		ri.Item.Translation,
		lessonLabel(ri.Item),
		ri.Item.Category,
		ri.Retrievability*100,
		ri.State.ReviewCount)
	return err
}
