package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pinpool/internal/app"
	"pinpool/internal/pin/classifier"
	"pinpool/internal/pin/models"
	"pinpool/internal/platform/config"
	"pinpool/internal/platform/logger"
)

// Persistent flags bound onto the same keys config.Load reads from the
// environment, so a flag wins over PINPOOL_* variables.
var flagKeys = map[string]string{
	"store":     "PINPOOL_STORE",
	"dsn":       "DATABASE_URL",
	"sqlite":    "SQLITE_PATH",
	"redis-url": "REDIS_URL",
	"table":     "PINPOOL_TABLE",
	"log-level": "LOG_LEVEL",
}

func newRootCmd() *cobra.Command {
	var timeout time.Duration

	root := &cobra.Command{
		Use:          "pinctl",
		Short:        "Operate a PIN allocation pool from the command line",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.String("store", "", "state store: memory, postgres, sqlite or redis")
	pf.String("dsn", "", "postgres connection string")
	pf.String("sqlite", "", "sqlite database file")
	pf.String("redis-url", "", "redis connection URL")
	pf.String("table", "", "table holding the universe")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.DurationVar(&timeout, "timeout", 30*time.Second, "overall deadline for the command")
	for name, key := range flagKeys {
		_ = viper.BindPFlag(key, pf.Lookup(name))
	}

	withApp := func(fn func(ctx context.Context, a *app.App, out io.Writer) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, "text")

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			a, err := app.New(ctx, cfg, log, nil)
			if err != nil {
				return err
			}
			defer a.Close()
			return fn(ctx, a, cmd.OutOrStdout())
		}
	}

	bootstrapCmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create and classify the universe if needed, then report",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app.App, out io.Writer) error {
			report, err := a.Service.Bootstrap(ctx)
			if err != nil {
				return err
			}
			return writeJSON(out, report)
		}),
	}

	var quantity int
	generateCmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"allocate"},
		Short:   "Allocate unique PINs and print them one per line",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app.App, out io.Writer) error {
			pins, err := a.Service.RequestPINs(ctx, quantity)
			if err != nil {
				return err
			}
			for _, p := range pins {
				fmt.Fprintln(out, p.Code)
			}
			return nil
		}),
	}
	generateCmd.Flags().IntVarP(&quantity, "count", "n", 1, "number of PINs to allocate")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the pool breakdown by state",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app.App, out io.Writer) error {
			stats, err := a.Service.Stats(ctx)
			if err != nil {
				return err
			}
			return writeJSON(out, stats)
		}),
	}

	rolloverCmd := &cobra.Command{
		Use:   "rollover",
		Short: "Return every allocated PIN to the pool",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app.App, out io.Writer) error {
			if err := a.Service.Rollover(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, "allocation reset")
			return nil
		}),
	}

	root.AddCommand(bootstrapCmd, generateCmd, statsCmd, rolloverCmd, newClassifyCmd())
	return root
}

// newClassifyCmd explains the verdict for each code without touching a store.
func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify CODE...",
		Short: "Show which rules reject each code",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, arg := range args {
				code, err := models.ParseCode(arg)
				if err != nil {
					return err
				}
				rules := classifier.Matches(code)
				if len(rules) == 0 {
					fmt.Fprintf(out, "%s\tallowed\n", code)
					continue
				}
				fmt.Fprintf(out, "%s\tnot allowed\t%s\n", code, strings.Join(rules, ","))
			}
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
