package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var tokenFresh bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the local cache holds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := app.Status(cmd.Context())
		if err != nil {
			return err
		}
		return emit(rows, func() {
			if len(rows) == 0 {
				fmt.Println("Nothing populated yet.")
				return
			}
			table := make([][]string, len(rows))
			for i, r := range rows {
				updated := "-"
				if !r.LastUpdated.IsZero() {
					updated = humanize.Time(r.LastUpdated)
				}
				table[i] = []string{r.Kind, yesNo(r.Populated), strconv.Itoa(r.TotalRecords), updated}
			}
			printTable([]string{"KIND", "POPULATED", "RECORDS", "UPDATED"}, table)
		})
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Check that the client credentials yield an access token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := app.Source()
		if err != nil {
			return err
		}
		tok, err := src.Tokens.GetToken(cmd.Context(), tokenFresh)
		if err != nil {
			return err
		}
		info := struct {
			ID        string    `json:"id"`
			ExpiresAt time.Time `json:"expires_at"`
		}{tok.ID, tok.ExpiresAt}
		return emit(info, func() {
			fmt.Printf("Token %s valid until %s (%s)\n", tok.ID, tok.ExpiresAt.Format(time.RFC3339), humanize.Time(tok.ExpiresAt))
		})
	},
}

func init() {
	tokenCmd.Flags().BoolVar(&tokenFresh, "fresh", false, "exchange credentials even if a cached token is valid")
}
