package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"veld/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently delivered deferred events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.History(limit)
				if err != nil {
					return err
				}
				if len(resp.Deliveries) == 0 {
					fmt.Println("no deliveries recorded")
					return nil
				}
				rows := make([][]string, 0, len(resp.Deliveries))
				for _, d := range resp.Deliveries {
					rows = append(rows, []string{
						fmt.Sprintf("%d", d.ID),
						d.EventID,
						humanizeLabel(d.Kind),
						d.Message,
						fmt.Sprintf("%d/%d", d.ObjectRefs, d.CodeRefs),
						d.DeliveredAt.Local().Format("2006-01-02 15:04:05"),
					})
				}
				fmt.Println(renderTable(
					[]string{"#", "Event", "Kind", "Message", "Refs", "Delivered"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show")
	return cmd
}
