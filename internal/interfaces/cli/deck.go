package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"flashcard-scheduler/internal/infrastructure/filesystem"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <deck.json>...",
		Short: "Import facts from JSON deck files",
		Long: `Import facts from JSON deck files of the form:

  {"deck": "animals", "facts": [{"prompt": "hond", "answer": "dog"}]}

Facts whose deck and prompt already exist are skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := filesystem.NewDeckLoader()

			for _, path := range args {
				facts, err := loader.LoadFromFile(path)
				if err != nil {
					return fmt.Errorf("loading %s: %w", path, err)
				}
				if err := a.factRepo.SaveBatch(cmd.Context(), facts); err != nil {
					return fmt.Errorf("importing %s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d facts from %s\n", len(facts), path)
			}

			return nil
		},
	}
}
