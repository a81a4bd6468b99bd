package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/phrazzld/vocabweave-api/internal/service"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func newSeedCmd(c *cli) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import the word list from a CSV file",
		Long: "Imports rows of index,text,translation[,category]. A header row is optional. " +
			"Words already present are skipped, so seeding twice is safe.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open %s: %w", file, err)
			}
			defer f.Close()

			lessons, err := readCatalogue(f)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}

			numbers := make([]int, 0, len(lessons))
			for n := range lessons {
				numbers = append(numbers, n)
			}
			slices.Sort(numbers)

			bar := progressbar.NewOptions(len(numbers),
				progressbar.OptionSetWriter(c.errOut),
				progressbar.OptionSetDescription("importing lessons"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)

			created := 0
			for _, n := range numbers {
				count, err := c.vocabulary.ImportLesson(cmd.Context(), n, lessons[n])
				if err != nil {
					return fmt.Errorf("import lesson %d: %w", n, err)
				}
				created += count
				_ = bar.Add(1)
			}
			_ = bar.Finish()

			return c.render(seedResult{Lessons: len(numbers), Created: created}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "imported %d new words across %d lessons\n", created, len(numbers))
				return err
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "CSV file with the word list")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

type seedResult struct {
	Lessons int `json:"lessons"`
	Created int `json:"created"`
}

var errShortRow = errors.New("row needs at least index, text and translation")

// readCatalogue parses the CSV word list and groups the entries by lesson.
func readCatalogue(r io.Reader) (map[int][]service.CatalogueEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	lessons := make(map[int][]service.CatalogueEntry)
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		if len(record) < 3 {
			return nil, fmt.Errorf("line %d: %w", line, errShortRow)
		}

		index, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			if line == 1 {
				continue // header
			}
			return nil, fmt.Errorf("line %d: invalid index %q", line, record[0])
		}
		if index < 0 || index > domain.MaxOxfordIndex {
			return nil, fmt.Errorf("line %d: %w: %d", line, domain.ErrInvalidOxfordIndex, index)
		}

		entry := service.CatalogueEntry{
			Index:       index,
			Text:        strings.TrimSpace(record[1]),
			Translation: strings.TrimSpace(record[2]),
		}
		if len(record) > 3 {
			entry.Category = domain.Category(strings.ToLower(strings.TrimSpace(record[3])))
		}

		lesson := domain.LessonForIndex(index)
		lessons[lesson] = append(lessons[lesson], entry)
	}

	if len(lessons) == 0 {
		return nil, errors.New("no words found")
	}
	return lessons, nil
}
