package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmcdole/tilawa/internal/domain"
	"github.com/mmcdole/tilawa/internal/progress"
)

var (
	progressPage   int
	bookmarksLimit int
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Track read verses and bookmarks",
}

var progressReadCmd = &cobra.Command{
	Use:   "read <chapter:verse>",
	Short: "Mark a verse as read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseKeyArg(args[0])
		if err != nil {
			return err
		}
		if err := app.Progress.MarkRead(cmd.Context(), domain.VerseRef{Key: key, PageNumber: progressPage}); err != nil {
			return err
		}
		fmt.Printf("Marked %s as read.\n", key)
		return nil
	},
}

var progressUnreadCmd = &cobra.Command{
	Use:   "unread <chapter:verse>",
	Short: "Mark a verse as unread",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseKeyArg(args[0])
		if err != nil {
			return err
		}
		if err := app.Progress.MarkUnread(cmd.Context(), key); err != nil {
			return err
		}
		fmt.Printf("Marked %s as unread.\n", key)
		return nil
	},
}

var progressBookmarkCmd = &cobra.Command{
	Use:   "bookmark <chapter:verse>",
	Short: "Toggle the bookmark on a verse",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseKeyArg(args[0])
		if err != nil {
			return err
		}
		on, err := app.Progress.ToggleBookmark(cmd.Context(), domain.VerseRef{Key: key, PageNumber: progressPage})
		if err != nil {
			return err
		}
		if on {
			fmt.Printf("Bookmarked %s.\n", key)
		} else {
			fmt.Printf("Removed bookmark from %s.\n", key)
		}
		return nil
	},
}

var progressShowCmd = &cobra.Command{
	Use:   "show <chapter:verse | chapter>",
	Short: "Show progress for a verse or a whole chapter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.Contains(args[0], ":") {
			key, err := parseKeyArg(args[0])
			if err != nil {
				return err
			}
			entry, ok, err := app.Progress.Progress(cmd.Context(), key)
			if err != nil {
				return err
			}
			if !ok {
				if jsonOutput {
					return printJSON(nil)
				}
				fmt.Printf("No progress recorded for %s.\n", key)
				return nil
			}
			return printProgressEntries([]domain.ProgressEntry{entry})
		}

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
		overlay, err := app.Progress.Overlay(cmd.Context(), verses)
		if err != nil {
			return err
		}
		return printOverlay(overlay)
	},
}

var progressBookmarksCmd = &cobra.Command{
	Use:   "bookmarks",
	Short: "List bookmarks, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := app.Progress.RecentBookmarks(cmd.Context(), bookmarksLimit)
		if err != nil {
			return err
		}
		return printProgressEntries(entries)
	},
}

var progressLastCmd = &cobra.Command{
	Use:   "last",
	Short: "Show the most recently read verse",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, ok, err := app.Progress.LastRead(cmd.Context())
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Nothing read yet.")
			return nil
		}
		return printProgressEntries([]domain.ProgressEntry{entry})
	},
}

func init() {
	progressReadCmd.Flags().IntVar(&progressPage, "page", 0, "mushaf page of the verse")
	progressBookmarkCmd.Flags().IntVar(&progressPage, "page", 0, "mushaf page of the verse")
	progressBookmarksCmd.Flags().IntVar(&bookmarksLimit, "limit", 20, "maximum number of bookmarks (0 = no limit)")

	progressCmd.AddCommand(progressReadCmd)
	progressCmd.AddCommand(progressUnreadCmd)
	progressCmd.AddCommand(progressBookmarkCmd)
	progressCmd.AddCommand(progressShowCmd)
	progressCmd.AddCommand(progressBookmarksCmd)
	progressCmd.AddCommand(progressLastCmd)
}

func printProgressEntries(entries []domain.ProgressEntry) error {
	return emit(entries, func() {
		if len(entries) == 0 {
			fmt.Println("No progress found.")
			return
		}
		rows := make([][]string, len(entries))
		for i, e := range entries {
			page := "-"
			if e.PageNumber > 0 {
				page = strconv.Itoa(e.PageNumber)
			}
			rows[i] = []string{
				string(e.VerseKey),
				page,
				yesNo(e.IsRead),
				formatTime(e.ReadAt),
				yesNo(e.IsBookmarked),
				formatTime(e.BookmarkedAt),
			}
		}
		printTable([]string{"VERSE", "PAGE", "READ", "READ AT", "BOOKMARKED", "BOOKMARKED AT"}, rows)
	})
}

func printOverlay(overlay []progress.VerseProgress) error {
	return emit(overlay, func() {
		read, bookmarked := 0, 0
		rows := make([][]string, len(overlay))
		for i, vp := range overlay {
			status := ""
			if p := vp.Progress; p != nil {
				if p.IsRead {
					status += "read "
					read++
				}
				if p.IsBookmarked {
					status += "bookmarked"
					bookmarked++
				}
			}
			rows[i] = []string{string(vp.Verse.Key), strconv.Itoa(vp.Verse.PageNumber), strings.TrimSpace(status)}
		}
		printTable([]string{"VERSE", "PAGE", "STATUS"}, rows)
		fmt.Printf("Read: %d/%d, bookmarked: %d\n", read, len(overlay), bookmarked)
	})
}
