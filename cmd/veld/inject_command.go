package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"veld/internal/ipc"
)

func newInjectCommand(ctx *commandContext) *cobra.Command {
	var kind string
	var message string
	var objects int
	var codeUnits int

	cmd := &cobra.Command{
		Use:   "inject",
		Short: "Enqueue a deferred event with synthetic payload references",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Inject(kind, message, objects, codeUnits)
				if err != nil {
					return err
				}
				fmt.Printf("enqueued event %s\n", resp.EventID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "code_unit_loaded", "Event kind")
	cmd.Flags().StringVarP(&message, "message", "m", "manual injection", "Event message")
	cmd.Flags().IntVar(&objects, "objects", 2, "Heap object references to attach")
	cmd.Flags().IntVar(&codeUnits, "code-units", 1, "Code unit references to attach")
	return cmd
}

func newGCCommand(ctx *commandContext) *cobra.Command {
	var cause string

	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Trigger a stop-the-world collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.GC(cause)
				if err != nil {
					return err
				}
				fmt.Printf("gc complete: freed %s, paused %dµs\n", formatBytes(resp.FreedBytes), resp.PauseMicros)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&cause, "cause", "manual", "Cause recorded with the cycle")
	return cmd
}

func newChurnCommand(ctx *commandContext) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "churn",
		Short: "Intern and retire synthetic table entries (soak testing)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Churn(count)
				if err != nil {
					return err
				}
				fmt.Printf("churned %d string/symbol pairs\n", resp.Interned)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 100, "Pairs to intern")
	return cmd
}

func newNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "notify-test",
		Short: "Send a test notification through the configured webhook",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.NotifyTest()
				if err != nil {
					return err
				}
				if resp.Sent {
					fmt.Println(resp.Message)
					return nil
				}
				return fmt.Errorf("test notification failed: %s", resp.Message)
			})
		},
	}
}
