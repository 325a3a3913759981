package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mmcdole/tilawa/internal/domain"
)

var audioNarrator string

var audioCmd = &cobra.Command{
	Use:   "audio",
	Short: "Manage cached recitation audio",
}

var audioResolveCmd = &cobra.Command{
	Use:   "resolve <chapter:verse>",
	Short: "Print the local file or CDN URL for a verse without downloading",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseKeyArg(args[0])
		if err != nil {
			return err
		}
		uri, err := app.Audio.ResolveURI(cmd.Context(), key, narrator())
		if err != nil {
			return err
		}
		fmt.Println(uri)
		return nil
	},
}

var audioCacheCmd = &cobra.Command{
	Use:   "cache <chapter:verse>",
	Short: "Download the audio of a verse into the cache",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseKeyArg(args[0])
		if err != nil {
			return err
		}
		path, err := app.Audio.CacheFile(cmd.Context(), key, narrator())
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var audioPreloadCmd = &cobra.Command{
	Use:   "preload <chapter>",
	Short: "Download the audio of every verse in a chapter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		chapter, err := parseIntArg("chapter", args[0], domain.ChapterCount)
		if err != nil {
			return err
		}
		q, err := app.Content()
		if err != nil {
			return err
		}
		verses, err := q.VersesByChapter(cmd.Context(), chapter)
		if err != nil {
			return err
		}
		keys := make([]domain.VerseKey, len(verses))
		for i, v := range verses {
			keys[i] = v.Key
		}

		summary := app.Audio.Preload(cmd.Context(), keys, narrator())
		return emit(summary, func() {
			fmt.Printf("Cached: %d, skipped: %d, failed: %d\n", summary.Cached, summary.Skipped, summary.Failed)
		})
	},
}

var audioUsageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show how much audio is cached",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		count, bytes, err := app.Audio.Usage(cmd.Context())
		if err != nil {
			return err
		}
		usage := struct {
			Files int   `json:"files"`
			Bytes int64 `json:"bytes"`
			Max   int64 `json:"max_bytes"`
		}{count, bytes, app.cfg.Audio.MaxBytes}

		return emit(usage, func() {
			limit := "unbounded"
			if usage.Max > 0 {
				limit = humanize.IBytes(uint64(usage.Max))
			}
			fmt.Printf("%d file(s), %s (limit %s)\n", usage.Files, humanize.IBytes(uint64(usage.Bytes)), limit)
		})
	},
}

var audioClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached audio file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Audio.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Audio cache cleared.")
		return nil
	},
}

func init() {
	audioCmd.PersistentFlags().StringVar(&audioNarrator, "narrator", "", "narrator CDN folder (default from audio.narrator)")

	audioCmd.AddCommand(audioResolveCmd)
	audioCmd.AddCommand(audioCacheCmd)
	audioCmd.AddCommand(audioPreloadCmd)
	audioCmd.AddCommand(audioUsageCmd)
	audioCmd.AddCommand(audioClearCmd)
}

func narrator() string {
	if audioNarrator != "" {
		return audioNarrator
	}
	return app.cfg.Audio.Narrator
}
