package main

import (
	"fmt"
	"os"

	"github.com/aretw0/conform/internal/cli"
	"github.com/aretw0/conform/internal/presentation/graph"
	"github.com/aretw0/conform/pkg/codec"
	"github.com/spf13/cobra"
)

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "Manage the schema catalogue",
}

var schemasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored schemas",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		checker, closeFn, err := cli.NewChecker(globalOpts, logger)
		if err != nil {
			return err
		}
		defer closeFn()

		names, err := checker.Schemas(cmd.Context())
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var schemasShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a stored schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mermaid, _ := cmd.Flags().GetBool("mermaid")
		format, _ := cmd.Flags().GetString("format")

		checker, closeFn, err := cli.NewChecker(globalOpts, logger)
		if err != nil {
			return err
		}
		defer closeFn()

		data, err := checker.LoadSchema(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if mermaid {
			root, err := checker.Parse(data)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(root, nil))
			return nil
		}

		out, err := codec.EncodeSchema(data, codec.Format(format))
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

var schemasPutCmd = &cobra.Command{
	Use:   "put <name> <file>",
	Short: "Store a schema file under a name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		data, err := codec.DecodeSchema(raw)
		if err != nil {
			return fmt.Errorf("schema %s: %w", args[1], err)
		}

		checker, closeFn, err := cli.NewChecker(globalOpts, logger)
		if err != nil {
			return err
		}
		defer closeFn()

		if err := checker.SaveSchema(cmd.Context(), args[0], data); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved schema %s\n", args[0])
		return nil
	},
}

var schemasDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove a stored schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		checker, closeFn, err := cli.NewChecker(globalOpts, logger)
		if err != nil {
			return err
		}
		defer closeFn()

		if err := checker.DeleteSchema(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted schema %s\n", args[0])
		return nil
	},
}

func init() {
	schemasShowCmd.Flags().Bool("mermaid", false, "Print the schema as a Mermaid diagram")
	schemasShowCmd.Flags().String("format", string(codec.FormatYAML), "Output format: yaml or json")

	schemasCmd.AddCommand(schemasListCmd, schemasShowCmd, schemasPutCmd, schemasDeleteCmd)
	rootCmd.AddCommand(schemasCmd)
}
