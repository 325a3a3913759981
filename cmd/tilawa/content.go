package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmcdole/tilawa/internal/domain"
	"github.com/mmcdole/tilawa/internal/library"
)

var (
	chaptersLimit  int
	tafsirResource int
)

var chaptersCmd = &cobra.Command{
	Use:   "chapters [query]",
	Short: "List chapters, or search them by name or number",
	Long: `List every chapter of the catalog. With a query, chapters are ranked by a
fuzzy match on their transliterated and translated names.

Example:
  tilawa chapters
  tilawa chapters kahf
  tilawa chapters "the cow" --limit 3`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChapters,
}

var chapterInfoCmd = &cobra.Command{
	Use:   "info <chapter>",
	Short: "Show the introduction of a chapter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIntArg("chapter", args[0], domain.ChapterCount)
		if err != nil {
			return err
		}
		q, err := app.Content()
		if err != nil {
			return err
		}
		info, err := q.ChapterInfo(cmd.Context(), id)
		if err != nil {
			return err
		}
		return emit(info, func() {
			fmt.Println(info.ShortText)
			fmt.Println()
			fmt.Println(info.Text)
			if info.Source != "" {
				fmt.Printf("\nSource: %s\n", info.Source)
			}
		})
	},
}

var verseCmd = &cobra.Command{
	Use:   "verse <chapter:verse>",
	Short: "Show one verse",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseKeyArg(args[0])
		if err != nil {
			return err
		}
		q, err := app.Content()
		if err != nil {
			return err
		}
		v, err := q.Verse(cmd.Context(), key)
		if err != nil {
			return err
		}
		return printVerses([]domain.Verse{v})
	},
}

var versesCmd = &cobra.Command{
	Use:   "verses <chapter> [from] [to]",
	Short: "Show the verses of a chapter, optionally a range",
	Args:  cobra.RangeArgs(1, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		nums := make([]int, 3)
		for i, arg := range args {
			upper := 0
			if i == 0 {
				upper = domain.ChapterCount
			}
			n, err := parseIntArg([]string{"chapter", "from", "to"}[i], arg, upper)
			if err != nil {
				return err
			}
			nums[i] = n
		}
		if len(args) == 2 {
			nums[2] = nums[1]
		}

		q, err := app.Content()
		if err != nil {
			return err
		}
		verses, err := q.VersesByRange(cmd.Context(), nums[0], nums[1], nums[2])
		if err != nil {
			return err
		}
		return printVerses(verses)
	},
}

var pageCmd = &cobra.Command{
	Use:   "page <n>",
	Short: "Show the verses on a mushaf page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, err := parseIntArg("page", args[0], library.PageCount)
		if err != nil {
			return err
		}
		q, err := app.Content()
		if err != nil {
			return err
		}
		verses, err := q.VersesByPage(cmd.Context(), page)
		if err != nil {
			return err
		}
		return printVerses(verses)
	},
}

var juzCmd = &cobra.Command{
	Use:   "juz <n>",
	Short: "Show the verses of a juz",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		juz, err := parseIntArg("juz", args[0], library.JuzCount)
		if err != nil {
			return err
		}
		q, err := app.Content()
		if err != nil {
			return err
		}
		verses, err := q.VersesByJuz(cmd.Context(), juz)
		if err != nil {
			return err
		}
		return printVerses(verses)
	},
}

var hizbCmd = &cobra.Command{
	Use:   "hizb <n>",
	Short: "Show the verses of a hizb",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hizb, err := parseIntArg("hizb", args[0], library.HizbCount)
		if err != nil {
			return err
		}
		q, err := app.Content()
		if err != nil {
			return err
		}
		verses, err := q.VersesByHizb(cmd.Context(), hizb)
		if err != nil {
			return err
		}
		return printVerses(verses)
	},
}

var tafsirCmd = &cobra.Command{
	Use:   "tafsir <chapter:verse | chapter>",
	Short: "Show tafsir for a verse or a whole chapter",
	Long: `Show commentary from one tafsir resource. The resource defaults to the
first configured tafsir.

Example:
  tilawa tafsir 2:255
  tilawa tafsir 112 --resource 169`,
	Args: cobra.ExactArgs(1),
	RunE: runTafsir,
}

var resourcesCmd = &cobra.Command{
	Use:   "resources <translation|tafsir> [query]",
	Short: "List translation or tafsir resources",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := domain.ResourceKind(strings.TrimSuffix(args[0], "s"))
		if kind != domain.ResourceTranslation && kind != domain.ResourceTafsir {
			return fmt.Errorf("unknown resource kind %q (want translation or tafsir)", args[0])
		}
		var query string
		if len(args) == 2 {
			query = args[1]
		}

		s, err := app.Search()
		if err != nil {
			return err
		}
		matches, err := s.Resources(cmd.Context(), kind, query)
		if err != nil {
			return err
		}

		resources := make([]domain.Resource, len(matches))
		for i, m := range matches {
			resources[i] = m.Resource
		}
		return emit(resources, func() {
			rows := make([][]string, len(resources))
			for i, r := range resources {
				rows[i] = []string{strconv.Itoa(r.ID), truncate(r.Name, 40), truncate(r.AuthorName, 30), r.LanguageName}
			}
			printTable([]string{"ID", "NAME", "AUTHOR", "LANGUAGE"}, rows)
		})
	},
}

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List the languages offered by the content API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := app.Content()
		if err != nil {
			return err
		}
		languages, err := q.Languages(cmd.Context())
		if err != nil {
			return err
		}
		return emit(languages, func() {
			rows := make([][]string, len(languages))
			for i, l := range languages {
				rows[i] = []string{l.ISOCode, l.Name, l.NativeName, l.Direction}
			}
			printTable([]string{"CODE", "NAME", "NATIVE", "DIRECTION"}, rows)
		})
	},
}

var recitationsCmd = &cobra.Command{
	Use:   "recitations",
	Short: "List audio recitations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := app.Content()
		if err != nil {
			return err
		}
		recitations, err := q.Recitations(cmd.Context())
		if err != nil {
			return err
		}
		return emit(recitations, func() {
			rows := make([][]string, len(recitations))
			for i, r := range recitations {
				style := r.Style
				if style == "" {
					style = "-"
				}
				rows[i] = []string{strconv.Itoa(r.ID), r.ReciterName, style}
			}
			printTable([]string{"ID", "RECITER", "STYLE"}, rows)
		})
	},
}

func init() {
	chaptersCmd.Flags().IntVar(&chaptersLimit, "limit", 0, "maximum number of search results (0 = no limit)")
	tafsirCmd.Flags().IntVar(&tafsirResource, "resource", 0, "tafsir resource id (default: first configured tafsir)")
	chaptersCmd.AddCommand(chapterInfoCmd)
}

func runChapters(cmd *cobra.Command, args []string) error {
	var chapters []domain.Chapter
	if len(args) == 1 {
		s, err := app.Search()
		if err != nil {
			return err
		}
		matches, err := s.Chapters(cmd.Context(), args[0], chaptersLimit)
		if err != nil {
			return err
		}
		for _, m := range matches {
			chapters = append(chapters, m.Chapter)
		}
	} else {
		q, err := app.Content()
		if err != nil {
			return err
		}
		all, err := q.Chapters(cmd.Context())
		if err != nil {
			return err
		}
		chapters = all
	}

	return emit(chapters, func() {
		if len(chapters) == 0 {
			fmt.Println("No chapters found.")
			return
		}
		rows := make([][]string, len(chapters))
		for i, ch := range chapters {
			rows[i] = []string{
				strconv.Itoa(ch.ID),
				ch.NameSimple,
				ch.TranslatedName,
				strconv.Itoa(ch.VersesCount),
				fmt.Sprintf("%d-%d", ch.Pages.First, ch.Pages.Last),
				ch.RevelationPlace,
			}
		}
		printTable([]string{"ID", "NAME", "MEANING", "VERSES", "PAGES", "REVEALED"}, rows)
	})
}

func runTafsir(cmd *cobra.Command, args []string) error {
	resource := tafsirResource
	if resource == 0 {
		if len(app.cfg.Content.Tafsirs) == 0 {
			return fmt.Errorf("no tafsir configured: pass --resource")
		}
		resource = app.cfg.Content.Tafsirs[0]
	}

	q, err := app.Content()
	if err != nil {
		return err
	}

	var entries []domain.TafsirEntry
	if strings.Contains(args[0], ":") {
		key, err := parseKeyArg(args[0])
		if err != nil {
			return err
		}
		entry, err := q.Tafsir(cmd.Context(), key, resource)
		if err != nil {
			return err
		}
		entries = []domain.TafsirEntry{entry}
	} else {
		chapter, err := parseIntArg("chapter", args[0], domain.ChapterCount)
		if err != nil {
			return err
		}
		entries, err = q.TafsirsByChapter(cmd.Context(), chapter, resource)
		if err != nil {
			return err
		}
	}

	return emit(entries, func() {
		if len(entries) == 0 {
			fmt.Println("No tafsir found.")
			return
		}
		for _, e := range entries {
			fmt.Printf("[%s] %s\n%s\n\n", e.VerseKey, e.ResourceName, e.Text)
		}
	})
}
