package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/promptdeck/promptdeck/internal/parser"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a prompt list file and print what the engine sees",
	Long: `Parse a markdown prompt list and print its title and prompts.

Useful for checking a file before uploading it: the same rules apply
(bullet lines become prompts, a lone --- truncates trailing notes, and
plain lines are used verbatim when no bullets exist).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		doc, err := parser.Parse(string(data))
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		if doc.Title != "" {
			fmt.Printf("# %s\n", doc.Title)
		}
		for _, p := range doc.Prompts {
			fmt.Printf("- %s\n", p)
		}
		fmt.Fprintf(os.Stderr, "%d prompts\n", len(doc.Prompts))
		return nil
	},
}
