package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"cardex/internal/convert"
	"cardex/internal/logging"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var targetFlag string
	var outputFlag string
	var imageFlag string
	var force bool

	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert a card file to another format",
		Long: `Convert a card between the supported formats: json-v2, json-v3, png-v2,
png-v3, charx, and voxta. The input format is detected automatically.

Examples:
  cardex convert card.png --to charx
  cardex convert card.charx --to json-v3 -o card.json
  cardex convert card.json --to png-v3 --image portrait.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := logging.NewComponentLogger(ctx.ensureLogger(), "convert")

			format, err := convert.ParseFormat(strings.TrimSpace(targetFlag))
			if err != nil {
				return err
			}

			buf, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			result, err := convert.Import(buf)
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}

			opts := convert.ExportOptions{Fetcher: ctx.fetcher()}
			if imageFlag != "" {
				base, err := os.ReadFile(imageFlag)
				if err != nil {
					return fmt.Errorf("read base image: %w", err)
				}
				opts.BaseImage = base
			} else if result.PNG != nil {
				opts.BaseImage = result.PNG
			}

			out, exportWarns, err := convert.Export(cmd.Context(), result.Card, result.Blobs, format, opts)
			if err != nil {
				return fmt.Errorf("export to %s: %w", format, err)
			}

			outputPath := outputFlag
			if outputPath == "" {
				outputPath = defaultOutputPath(args[0], format)
			}
			overwrite := force || cfg.Export.OverwriteExisting
			if err := writeOutput(outputPath, out, overwrite); err != nil {
				return err
			}

			logger.Info("card converted",
				logging.String("input", args[0]),
				logging.String("format", string(format)),
				logging.String("output", outputPath),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", outputPath, len(out))

			warns := result.Warnings
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
