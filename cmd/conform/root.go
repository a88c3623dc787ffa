package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/conform/internal/cli"
	"github.com/spf13/cobra"
)

var (
	globalOpts cli.Options
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "conform",
	Short: "Conform validates and normalizes documents against declarative schemas",
	Long: `Conform checks YAML, JSON and Markdown frontmatter documents against schemas
kept in a catalogue, renames aliased keys and reports every finding.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = cli.CreateLogger(globalOpts)
		return err
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&globalOpts.LogLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	flags.StringVar(&globalOpts.Store, "store", cli.StoreFile, "Schema catalogue: memory, file or redis")
	flags.StringVar(&globalOpts.Dir, "dir", "", "Directory of the file catalogue (default .conform/schemas)")
	flags.StringVar(&globalOpts.RedisAddr, "redis-addr", "localhost:6379", "Redis address for --store redis")
	flags.StringVar(&globalOpts.RedisPassword, "redis-password", "", "Redis password")
	flags.IntVar(&globalOpts.RedisDB, "redis-db", 0, "Redis database")
	flags.BoolVar(&globalOpts.Expressions, "cel", false, "Allow {cel: ...} callbacks in schemas")
	flags.BoolVar(&globalOpts.ReadOnly, "read-only", false, "Reject schema writes")
	flags.DurationVar(&globalOpts.CacheTTL, "cache-ttl", 0, "Cache loaded schemas for this long (0 disables)")
	flags.BoolVar(&globalOpts.Presence, "presence", false, "Treat 0, false and empty strings as present for required fields")
}
