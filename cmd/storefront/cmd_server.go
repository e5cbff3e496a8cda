package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storefront/app/routes"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/internal/kernel"
	"github.com/shashiranjanraj/storefront/internal/server"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/migration"
	"github.com/shashiranjanraj/storefront/pkg/router"
)

var (
	serveWorkers int
	serveMigrate bool
)

// storefront serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server with queue workers and the scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		k, err := kernel.Boot(ctx)
		if err != nil {
			return err
		}
		defer k.Close()

		if uri := config.LogMongoURI(); uri != "" {
			closeSink, err := logger.EnableAuditSink(uri, config.LogMongoDB(), config.LogMongoCollection())
			if err != nil {
				logger.Warn("serve: audit sink disabled", "error", err)
			} else {
				defer closeSink()
			}
		}

		if serveMigrate {
			if err := migration.New(k.DB).Quiet().Run(); err != nil {
				return err
			}
		}

		return server.Start(ctx, k, server.Options{
			Port:     config.AppPort(),
			GRPCPort: config.GRPCPort(),
			Workers:  serveWorkers,
		})
	},
}

// storefront route:list
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List every registered API route",
	RunE: func(cmd *cobra.Command, args []string) error {
		r := router.New()
		routes.RegisterAPI(r, kernel.Controllers(nil, nil))

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range r.Routes() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}

func init() {
	serveCmd.Flags().IntVarP(&serveWorkers, "workers", "w", 2, "Number of in-process queue workers")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Run pending migrations before serving")
}
