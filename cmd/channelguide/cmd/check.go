package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/aseeltv/channelguide/internal/auth"
	"github.com/aseeltv/channelguide/internal/cache"
	"github.com/aseeltv/channelguide/internal/checkup"
	"github.com/aseeltv/channelguide/internal/store"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe the configured backends and print a report",
	Long: "Connects to the configured database and cache, runs a write probe,\n" +
		"and verifies the admin configuration. Exits non-zero when any\n" +
		"configured component reports an error.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var st store.Store
		if cfg.DatabaseURL != "" {
			pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
			if err != nil {
				fmt.Fprintf(os.Stderr, "db: %v\n", err)
			} else {
				defer pg.Close()
				st = pg
			}
		}

		var c cache.Cache
		if cfg.RedisURL != "" {
			if r, err := cache.NewRedis(cfg.RedisURL); err == nil {
				defer r.Close()
				c = r
			} else {
				fmt.Fprintf(os.Stderr, "redis: %v\n", err)
			}
		}

		var verifier auth.Verifier
		if cfg.AdminIdentity != "" && cfg.AdminSecret != "" {
			verifier = auth.StaticVerifier{Identity: cfg.AdminIdentity, Secret: cfg.AdminSecret}
		}

		report := checkup.New(st, c, verifier).CheckAll(ctx)
		printReport(report)

		if !report.Healthy() {
			os.Exit(1)
		}
		return nil
	},
}

func printReport(report checkup.Report) {
	names := make([]string, 0, len(report))
	for name := range report {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		res := report[name]
		fmt.Printf("%-12s %-8s %s\n", name, res.Status, res.Message)
	}
}
