package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmcdole/tilawa/internal/domain"
	"github.com/mmcdole/tilawa/internal/populate"
)

var (
	populateTafsir      bool
	populateConcurrency int
	populateAudio       bool
)

var populateCmd = &cobra.Command{
	Use:   "populate",
	Short: "Fill the local cache in bulk",
}

var populateAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Populate every chapter",
	Long: `Populate the chapter catalog and the verses of all 114 chapters, fetched in
windows of concurrent chapters. Failed chapters are reported at the end and
picked up again by the next run.

Example:
  tilawa populate all
  tilawa populate all --tafsir --concurrency 8`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := app.Populator()
		if err != nil {
			return err
		}
		return o.PopulateAll(cmd.Context(), populateOptions())
	},
}

var populatePopularCmd = &cobra.Command{
	Use:   "popular [chapter...]",
	Short: "Populate frequently read chapters one at a time",
	Long: `Populate a short list of chapters sequentially. Without arguments the
configured popular list is used. Audio for these chapters is preloaded with
--audio.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		chapters := app.cfg.Populate.Popular
		if len(args) > 0 {
			chapters = make([]int, len(args))
			for i, arg := range args {
				n, err := parseIntArg("chapter", arg, domain.ChapterCount)
				if err != nil {
					return err
				}
				chapters[i] = n
			}
		}

		o, err := app.Populator()
		if err != nil {
			return err
		}
		return o.PopulatePopular(cmd.Context(), chapters, populateOptions())
	},
}

func init() {
	populateCmd.PersistentFlags().BoolVar(&populateTafsir, "tafsir", false, "also populate the configured tafsirs (default from populate.include_tafsir)")
	populateCmd.PersistentFlags().IntVar(&populateConcurrency, "concurrency", 0, "chapters fetched per window (default from populate.concurrency)")
	populateCmd.PersistentFlags().BoolVar(&populateAudio, "audio", false, "preload audio for the configured narrator")

	populateCmd.AddCommand(populateAllCmd)
	populateCmd.AddCommand(populatePopularCmd)
}

func populateOptions() populate.Options {
	opts := populate.Options{
		IncludeTafsir: populateTafsir || app.cfg.Populate.IncludeTafsir,
		TafsirIDs:     app.cfg.Content.Tafsirs,
		Concurrency:   app.cfg.Populate.Concurrency,
		OnProgress:    printProgress,
	}
	if populateConcurrency > 0 {
		opts.Concurrency = populateConcurrency
	}
	if populateAudio {
		opts.Narrator = app.cfg.Audio.Narrator
	}
	return opts
}

// printProgress redraws one status line per phase on stderr.
func printProgress(p domain.PopulateProgress) {
	var sb strings.Builder
	sb.WriteString("\r")
	sb.WriteString(string(p.Phase))
	sb.WriteString(": ")
	sb.WriteString(strconv.Itoa(p.Completed))
	sb.WriteString("/")
	sb.WriteString(strconv.Itoa(p.Total))
	sb.WriteString(fmt.Sprintf(" (%3.0f%%)", p.Fraction()*100))
	if p.Failed > 0 {
		sb.WriteString(fmt.Sprintf(", %d failed", p.Failed))
	}
	printStderr("%s", sb.String())
	if p.Completed == p.Total {
		printStderr("\n")
	}
}
