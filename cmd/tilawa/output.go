package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/mmcdole/tilawa/internal/domain"
)

type statusRow struct {
	Kind         string    `json:"kind"`
	Populated    bool      `json:"populated"`
	TotalRecords int       `json:"total_records"`
	LastUpdated  time.Time `json:"last_updated"`
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Println(string(output))
	return nil
}

// printTable prints rows under header, trimming trailing whitespace from each line.
func printTable(header []string, rows [][]string) {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()

	for _, line := range strings.Split(strings.TrimRight(sb.String(), "\n"), "\n") {
		fmt.Println(strings.TrimRight(line, " "))
	}
}

// emit prints v as JSON with --json, otherwise runs the table printer.
func emit(v any, table func()) error {
	if jsonOutput {
		return printJSON(v)
	}
	table()
	return nil
}

// truncate shortens s to n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

// parseIntArg parses a positive integer argument with a readable error.
func parseIntArg(name, arg string, upper int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 || (upper > 0 && n > upper) {
		if upper > 0 {
			return 0, fmt.Errorf("%s must be a number between 1 and %d, got %q", name, upper, arg)
		}
		return 0, fmt.Errorf("%s must be a positive number, got %q", name, arg)
	}
	return n, nil
}

// parseKeyArg validates a "chapter:verse" argument and returns its canonical key.
func parseKeyArg(arg string) (domain.VerseKey, error) {
	return domain.CanonicalVerseKey(arg)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return humanize.Time(*t)
}

func printVerses(verses []domain.Verse) error {
	return emit(verses, func() {
		if len(verses) == 0 {
			fmt.Println("No verses found.")
			return
		}
		for _, v := range verses {
			fmt.Printf("[%s] %s\n", v.Key, v.TextUthmani)
			for _, t := range v.Translations {
				fmt.Printf("    %s\n", t.Text)
			}
		}
		fmt.Printf("Total: %d verse(s)\n", len(verses))
	})
}

func printStderr(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
}
