package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cardex/internal/cards"
	"cardex/internal/convert"
	"cardex/internal/detect"
	"cardex/internal/logging"
)

type cardSummary struct {
	Name             string   `json:"name"`
	Nickname         string   `json:"nickname,omitempty"`
	Spec             string   `json:"spec"`
	Source           string   `json:"source"`
	Creator          string   `json:"creator,omitempty"`
	CharacterVersion string   `json:"character_version,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	AltGreetings     int      `json:"alternate_greetings"`
	LorebookEntries  int      `json:"lorebook_entries"`
	Assets           int      `json:"assets"`
	ExtensionKeys    []string `json:"extension_keys,omitempty"`
	Warnings         []string `json:"warnings,omitempty"`
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Inspect the card embedded in a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewComponentLogger(ctx.ensureLogger(), "show")

			buf, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			result, err := convert.Import(buf)
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}
			logger.Debug("card imported",
				logging.String("source", string(result.Source)),
				logging.Int("warnings", len(result.Warnings)),
			)

			summary := summarize(result)
			if asJSON {
				return writeJSON(cmd, summary)
			}

			rows := [][]string{
				{"Name", summary.Name},
				{"Spec", summary.Spec},
				{"Source", summary.Source},
				{"Creator", summary.Creator},
				{"Version", summary.CharacterVersion},
				{"Tags", strings.Join(summary.Tags, ", ")},
				{"Alt greetings", strconv.Itoa(summary.AltGreetings)},
				{"Lorebook entries", strconv.Itoa(summary.LorebookEntries)},
				{"Assets", strconv.Itoa(summary.Assets)},
				{"Extensions", strings.Join(summary.ExtensionKeys, ", ")},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
			printWarnings(cmd, result.Warnings)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the summary as JSON")
	return cmd
}

func summarize(result *convert.Result) cardSummary {
	card := result.Card

	source := string(result.Source)
	if result.Source == detect.KindZIP {
		source = string(result.Container)
	}

	summary := cardSummary{
		Name:             card.Name,
		Nickname:         card.Nickname,
		Spec:             string(card.Spec),
		Source:           source,
		Creator:          card.Creator,
		CharacterVersion: card.CharacterVersion,
		Tags:             card.Tags,
		AltGreetings:     len(card.AlternateGreetings),
		Assets:           len(card.Assets),
		ExtensionKeys:    extensionKeys(card.Extensions),
	}
	if card.CharacterBook != nil {
		summary.LorebookEntries = len(card.CharacterBook.Entries)
	}
	for _, w := range result.Warnings {
		summary.Warnings = append(summary.Warnings, w.String())
	}
	return summary
}

func extensionKeys(ext cards.Extensions) []string {
	keys := make([]string, 0, len(ext))
	for k := range ext {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
