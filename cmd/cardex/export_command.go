package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"cardex/internal/convert"
	"cardex/internal/library"
	"cardex/internal/logging"
	"cardex/internal/normalize"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var targetFlag string
	var outputFlag string
	var imageFlag string
	var force bool

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a library card to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := logging.NewComponentLogger(ctx.ensureLogger(), "export")

			format, err := convert.ParseFormat(strings.TrimSpace(targetFlag))
			if err != nil {
				return err
			}

			store, err := library.Open(cfg)
			if err != nil {
				return fmt.Errorf("open library: %w", err)
			}
			defer store.Close()

			rec, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			card, warns, err := normalize.Card(rec.CardJSON)
			if err != nil {
				return fmt.Errorf("stored card %s: %w", rec.ID, err)
			}

			blobs, err := store.Blobs(rec.ID)
			if err != nil {
				return err
			}

			opts := convert.ExportOptions{Fetcher: ctx.fetcher()}
			if imageFlag != "" {
				base, err := os.ReadFile(imageFlag)
				if err != nil {
					return fmt.Errorf("read base image: %w", err)
				}
				opts.BaseImage = base
			}

			out, exportWarns, err := convert.Export(cmd.Context(), card, blobs, format, opts)
			if err != nil {
				return fmt.Errorf("export to %s: %w", format, err)
			}

			outputPath := outputFlag
			if outputPath == "" {
				outputPath = defaultOutputPath(rec.Name, format)
			}
			overwrite := force || cfg.Export.OverwriteExisting
			if err := writeOutput(outputPath, out, overwrite); err != nil {
				return err
			}

			logger.Info("card exported",
				logging.String("id", rec.ID),
				logging.String("format", string(format)),
				logging.String("output", outputPath),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", outputPath, len(out))

			warns.Merge(exportWarns)
			printWarnings(cmd, warns)
			return nil
		},
	}

	cmd.Flags().StringVar(&targetFlag, "to", "", "Target format (json-v2, json-v3, png-v2, png-v3, charx, voxta)")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output file path")
	cmd.Flags().StringVar(&imageFlag, "image", "", "Base PNG image for png targets")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite the output file if it exists")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove a card from the library",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := library.Open(cfg)
			if err != nil {
				return fmt.Errorf("open library: %w", err)
			}
			defer store.Close()

			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
	return cmd
}
