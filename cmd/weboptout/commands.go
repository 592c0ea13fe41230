package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexjc/weboptout/internal/app"
	"github.com/alexjc/weboptout/internal/config"
	"github.com/alexjc/weboptout/internal/usecase"
)

func newRootCommand(ctx context.Context, cfg config.Config, logger *slog.Logger) *cobra.Command {
	var useDatabase bool
	var useRender bool

	root := &cobra.Command{
		Use:           "weboptout",
		Short:         "Check whether a domain's Terms Of Service opt out of automated data collection",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&useDatabase, "use-database", cfg.Database.Enabled,
		"consult and refresh the on-disk reservation database")
	root.PersistentFlags().BoolVar(&useRender, "render", cfg.Render.Enabled,
		"enable the browser-rendering fallback")

	build := func() (*app.Application, error) {
		cfg.Database.Enabled = useDatabase
		cfg.Render.Enabled = useRender
		return app.New(ctx, cfg, logger)
	}

	root.AddCommand(newCheckDomainCommand(ctx, build))
	root.AddCommand(newCheckURLCommand(ctx, build))
	root.AddCommand(newCheckCommand(ctx, build))
	root.AddCommand(newCheckDatasetCommand(ctx, build))
	return root
}

type appBuilder func() (*app.Application, error)

func newCheckDomainCommand(ctx context.Context, build appBuilder) *cobra.Command {
	return &cobra.Command{
		Use:   "check-domain DOMAIN...",
		Short: "Check one or more domains (no URL scheme)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := build()
			if err != nil {
				return err
			}
			defer application.Close()

			printHeading("Domain")
			for _, host := range args {
				printReservation(host, application.Checker.CheckDomain(ctx, host))
			}
			return nil
		},
	}
}

func newCheckURLCommand(ctx context.Context, build appBuilder) *cobra.Command {
	return &cobra.Command{
		Use:   "check-url URL...",
		Short: "Check the domains behind one or more URLs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := build()
			if err != nil {
				return err
			}
			defer application.Close()

			printHeading("Link")
			for _, raw := range args {
				printReservation(raw, application.Checker.CheckURL(ctx, raw))
			}
			return nil
		},
	}
}

func newCheckCommand(ctx context.Context, build appBuilder) *cobra.Command {
	return &cobra.Command{
		Use:   "check SOURCE...",
		Short: "Check domains or URLs, detected from the scheme prefix",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			urls := 0
			for _, src := range args {
				if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
					urls++
				}
			}
			if urls != 0 && urls != len(args) {
				return fmt.Errorf("mixing URLs and bare domains is not supported")
			}

			application, err := build()
			if err != nil {
				return err
			}
			defer application.Close()

			if urls > 0 {
				printHeading("Link")
				for _, raw := range args {
					printReservation(raw, application.Checker.CheckURL(ctx, raw))
				}
				return nil
			}
			printHeading("Domain")
			for _, host := range args {
				printReservation(host, application.Checker.CheckDomain(ctx, host))
			}
			return nil
		},
	}
}

func newCheckDatasetCommand(ctx context.Context, build appBuilder) *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "check-dataset FILE",
		Short: "Check the most frequent domains of a TSV dataset summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open dataset: %w", err)
			}
			entries, err := usecase.ParseDataset(file)
			file.Close()
			if err != nil {
				return err
			}

			application, err := build()
			if err != nil {
				return err
			}
			defer application.Close()

			top := usecase.TopDomains(entries, topK)
			hosts := make([]string, len(top))
			for i, entry := range top {
				hosts[i] = entry.Domain
			}

			results := application.Batch.CheckDomains(ctx, hosts)
			printDatasetSummary(top, results)
			return nil
		},
	}
	cmd.Flags().IntVar(&topK, "top", 100, "how many of the highest-count domains to check")
	return cmd
}
