package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"fetcharr/internal/config"
	"fetcharr/internal/requests"
)

func newRequestsCommand(configFlag *string) *cobra.Command {
	requestsCmd := &cobra.Command{
		Use:   "requests",
		Short: "Inspect tracked requests",
	}
	requestsCmd.AddCommand(newRequestsListCommand(configFlag))
	return requestsCmd
}

func newRequestsListCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.Load(*configFlag)
			if err != nil {
				return err
			}
			store, err := requests.Open(cfg)
			if err != nil {
				return fmt.Errorf("open request store: %w", err)
			}
			defer store.Close()

			records, err := store.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No tracked requests.")
				return nil
			}

			rows := make([][]string, 0, len(records))
			now := time.Now().UTC()
			for _, record := range records {
				rows = append(rows, []string{
					strconv.FormatInt(record.ID, 10),
					strconv.FormatInt(record.RequestorID, 10),
					record.Name,
					string(record.MediaType),
					string(record.State),
					record.Age(now).Round(time.Second).String(),
				})
			}

			headers := []string{"ID", "Requestor", "Name", "Type", "State", "Age"}
			if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
				fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignLeft, alignRight}))
				return nil
			}
			// Plain tab-separated output when piped.
			for _, row := range rows {
				for i, cell := range row {
					if i > 0 {
						fmt.Fprint(out, "\t")
					}
					fmt.Fprint(out, cell)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}
