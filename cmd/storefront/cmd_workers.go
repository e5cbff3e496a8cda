package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storefront/internal/kernel"
)

var queueWorkersFlag int

// storefront queue:work
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Process queued jobs (verification and order mails)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		k, err := kernel.Boot(ctx)
		if err != nil {
			return err
		}
		defer k.Close()

		workers := queueWorkersFlag
		if workers < 1 {
			workers = 5
		}
		fmt.Printf("Queue worker started (%d workers). Press Ctrl+C to stop.\n", workers)
		k.Queue.Work(ctx, workers).Wait()
		fmt.Println("Queue worker stopped.")
		return nil
	},
}

var scheduleOnce bool

// storefront schedule:run
var scheduleRunCmd = &cobra.Command{
	Use:   "schedule:run",
	Short: "Run scheduled tasks (expired token purge)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		k, err := kernel.Boot(ctx)
		if err != nil {
			return err
		}
		defer k.Close()

		fmt.Println("Registered scheduled tasks:")
		for _, t := range k.Scheduler.List() {
			fmt.Println("  •", t)
		}

		if scheduleOnce {
			return k.Scheduler.RunAll(ctx)
		}

		fmt.Println("Scheduler started. Press Ctrl+C to stop.")
		k.Scheduler.Start(ctx)
		<-ctx.Done()
		k.Scheduler.Wait()
		fmt.Println("Scheduler stopped.")
		return nil
	},
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", 5, "Number of concurrent workers")
	scheduleRunCmd.Flags().BoolVar(&scheduleOnce, "once", false, "Run every task once and exit")
}
