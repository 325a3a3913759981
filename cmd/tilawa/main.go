// Package main provides the tilawa CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags
var Version = "dev"

var (
	// configFile is set by the --config flag.
	configFile string

	// jsonOutput is set by the --json flag.
	jsonOutput bool

	// app is the wired application, initialized on startup.
	app *App
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tilawa",
	Short: "Tilawa caches Quran content for offline reading and listening",
	Long: `Tilawa keeps a local cache of the Quran content API: chapters, verses,
translations, tafsir and recitation audio. Reads populate the cache on first
use and are served locally afterwards. Reading progress and bookmarks are
stored alongside.`,
	SilenceUsage:      true,
	PersistentPreRunE: initApp,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeApp()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: $XDG_CONFIG_HOME/tilawa/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(chaptersCmd)
	rootCmd.AddCommand(verseCmd)
	rootCmd.AddCommand(versesCmd)
	rootCmd.AddCommand(pageCmd)
	rootCmd.AddCommand(juzCmd)
	rootCmd.AddCommand(hizbCmd)
	rootCmd.AddCommand(tafsirCmd)
	rootCmd.AddCommand(resourcesCmd)
	rootCmd.AddCommand(languagesCmd)
	rootCmd.AddCommand(recitationsCmd)
	rootCmd.AddCommand(populateCmd)
	rootCmd.AddCommand(audioCmd)
	rootCmd.AddCommand(progressCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tilawa %s\n", Version)
	},
}

// initApp loads config and wires the application.
func initApp(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	a, err := NewApp(cmd.Context(), configFile)
	if err != nil {
		return err
	}
	app = a
	return nil
}

// closeApp releases the database.
func closeApp() error {
	if app != nil {
		err := app.Close()
		app = nil
		return err
	}
	return nil
}
