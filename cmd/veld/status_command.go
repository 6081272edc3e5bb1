package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"veld/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and maintenance worker status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}
				printStatus(resp)
				return nil
			})
		},
	}
}

func printStatus(resp *ipc.StatusResponse) {
	colorize := shouldColorize(os.Stdout)

	fmt.Println(renderSectionHeader("Runtime", colorize))
	fmt.Printf("  PID:           %d\n", resp.PID)
	fmt.Printf("  Uptime:        %s\n", (time.Duration(resp.UptimeSeconds) * time.Second).String())
	fmt.Printf("  Heap:          %s / %s\n", formatBytes(resp.HeapUsed), formatBytes(resp.HeapLimit))
	fmt.Printf("  Live objects:  %d (freed %d)\n", resp.LiveObjects, resp.FreedObjects)
	fmt.Printf("  Lock:          %s\n", resp.LockPath)
	if resp.LastError != "" {
		label := "  Last error:    " + resp.LastError
		if colorize {
			label = ansiRed + label + ansiReset
		}
		fmt.Println(label)
	}
	fmt.Println()

	fmt.Println(renderSectionHeader("Maintenance worker", colorize))
	fmt.Printf("  Queue depth:   %d\n", resp.Worker.QueueDepth)
	inflight := resp.Worker.InflightID
	if inflight == "" {
		inflight = "none"
	}
	fmt.Printf("  In flight:     %s\n", inflight)
	fmt.Printf("  Iterations:    %d\n", resp.Worker.Iterations)
	fmt.Printf("  Delivered:     %d (journal %d)\n", resp.Worker.Delivered, resp.JournalCount)
	fmt.Printf("  Errors:        %d\n", resp.Worker.DispatchErrors)
	fmt.Println()

	fmt.Println(renderSectionHeader("Work sources", colorize))
	rows := make([][]string, 0, len(resp.Tables)+len(resp.SensorTrips)+1)
	for _, t := range resp.Tables {
		rows = append(rows, []string{
			humanizeLabel(t.Name),
			fmt.Sprintf("%d", t.Entries),
			fmt.Sprintf("%d", t.Dead),
			fmt.Sprintf("%d", t.Removed),
		})
	}
	sensors := make([]string, 0, len(resp.SensorTrips))
	for name := range resp.SensorTrips {
		sensors = append(sensors, name)
	}
	sort.Strings(sensors)
	for _, name := range sensors {
		rows = append(rows, []string{
			humanizeLabel(name),
			"-", "-",
			fmt.Sprintf("%d", resp.SensorTrips[name]),
		})
	}
	rows = append(rows, []string{
		"Gc Notifier",
		"-", "-",
		fmt.Sprintf("%d", resp.GCDelivered),
	})
	fmt.Println(renderTable(
		[]string{"Source", "Entries", "Dead", "Serviced"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
	))
}
