package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cardex/internal/library"
)

type recordView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Spec     string `json:"spec"`
	Source   string `json:"source"`
	Warnings int    `json:"warnings"`
	Created  string `json:"created"`
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cards in the library",
		Args:  cobra.NoArgs,
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

			records, err := store.List(cmd.Context())
			if err != nil {
				return err
			}

			views := make([]recordView, 0, len(records))
			titler := cases.Title(language.English, cases.NoLower)
			for _, rec := range records {
				views = append(views, recordView{
					ID:       rec.ID,
					Name:     titler.String(rec.Name),
					Spec:     rec.Spec,
					Source:   rec.SourceFormat,
					Warnings: rec.WarningCount,
					Created:  rec.CreatedAt.Local().Format(time.DateTime),
				})
			}

			if asJSON {
				return writeJSON(cmd, views)
			}

			if len(views) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Library is empty")
				return nil
			}

			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{v.ID, v.Name, v.Spec, v.Source, strconv.Itoa(v.Warnings), v.Created})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Spec", "Source", "Warnings", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the listing as JSON")
	return cmd
}
