package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/conform/internal/cli"
	"github.com/aretw0/conform/internal/presentation/tui"
	conformloam "github.com/aretw0/conform/pkg/adapters/loam"
	"github.com/aretw0/conform/pkg/codec"
	"github.com/aretw0/loam"
	"github.com/spf13/cobra"
)

func newCheckCommand(mode cli.Mode, short, long string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(mode) + " <schema> [files...]",
		Short: short,
		Long: long + `

<schema> is a schema file (.yaml, .yml or .json) or the name of a stored schema.
Documents are read from the given files or, with --vault, from every Markdown,
YAML and JSON file of a directory.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, mode, args)
		},
	}
	cmd.Flags().String("vault", "", "Directory of documents to check")
	cmd.Flags().String("content-key", "", "Expose Markdown bodies under this key (with --vault)")
	cmd.Flags().Bool("watch", false, "Keep checking documents as they change (with --vault)")
	cmd.Flags().String("format", string(codec.FormatYAML), "Output format for normalized documents: yaml or json")
	return cmd
}

func runCheck(cmd *cobra.Command, mode cli.Mode, args []string) error {
	vault, _ := cmd.Flags().GetString("vault")
	contentKey, _ := cmd.Flags().GetString("content-key")
	watch, _ := cmd.Flags().GetBool("watch")
	format, _ := cmd.Flags().GetString("format")

	if vault == "" && len(args) < 2 {
		return errors.New("no documents given: pass files or --vault")
	}
	if watch && vault == "" {
		return errors.New("--watch requires --vault")
	}

	s, err := cli.ResolveSchema(args[0])
	if err != nil {
		return err
	}

	checker, closeFn, err := cli.NewChecker(globalOpts, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	runner := &cli.Runner{
		Checker:  checker,
		Schema:   s,
		Mode:     mode,
		Reporter: tui.NewReporter(os.Stdout),
		Out:      os.Stdout,
		Format:   codec.Format(format),
		Logger:   logger,
	}

	ctx := cli.NewSignalContext(cmd.Context())
	defer ctx.Cancel()

	if vault == "" {
		sum, err := runner.Files(ctx, args[1:])
		if err != nil {
			return err
		}
		return sum.Err()
	}

	src, err := openVault(vault, contentKey)
	if err != nil {
		return err
	}
	if watch {
		return runner.Watch(ctx, src)
	}
	sum, err := runner.Source(ctx, src)
	if err != nil {
		return err
	}
	return sum.Err()
}

func openVault(dir, contentKey string) (*conformloam.Source, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
		loam.WithVersioning(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open vault %s: %w", dir, err)
	}

	var opts []conformloam.Option
	if contentKey != "" {
		opts = append(opts, conformloam.WithContentKey(contentKey))
	}
	return conformloam.New(loam.NewTypedRepository[conformloam.Metadata](repo), opts...), nil
}

func init() {
	rootCmd.AddCommand(
		newCheckCommand(cli.ModeValidate,
			"Validate documents against a schema",
			"Reports type mismatches, missing required keys, failed tests and unknown keys."),
		newCheckCommand(cli.ModeNormalize,
			"Rename aliased keys to their canonical names",
			"Prints each document with aliased keys renamed, leaving everything else untouched."),
		newCheckCommand(cli.ModeCheck,
			"Normalize, then validate documents",
			"Normalizes each document and validates the result."),
	)
}
