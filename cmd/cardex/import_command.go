package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cardex/internal/convert"
	"cardex/internal/detect"
	"cardex/internal/library"
	"cardex/internal/logging"
	"cardex/internal/serialize"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import card files into the library",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := logging.NewComponentLogger(ctx.ensureLogger(), "import")

			store, err := library.Open(cfg)
			if err != nil {
				return fmt.Errorf("open library: %w", err)
			}
			defer store.Close()

			for _, path := range args {
				buf, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}

				result, err := convert.Import(buf)
				if err != nil {
					return fmt.Errorf("import %s: %w", path, err)
				}

				cardJSON, err := serialize.Card(result.Card, result.Card.Spec)
				if err != nil {
					return fmt.Errorf("serialize %s: %w", path, err)
				}

				source := string(result.Source)
				if result.Source == detect.KindZIP {
					source = string(result.Container)
				}

				id, err := store.Save(cmd.Context(), result.Card.Name, string(result.Card.Spec), source, cardJSON, len(result.Warnings), result.Blobs)
				if err != nil {
					return fmt.Errorf("store %s: %w", path, err)
				}

				logger.Info("card imported",
					logging.String("path", path),
					logging.String("id", id),
					logging.Int("warnings", len(result.Warnings)),
				)
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %q as %s\n", result.Card.Name, id)
				printWarnings(cmd, result.Warnings)
			}
			return nil
		},
	}
	return cmd
}
