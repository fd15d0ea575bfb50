package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/vrsandeep/mango-catalog/internal/store"
)

func newSeriesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "series",
		Short: "Browse catalogued series",
	}
	cmd.AddCommand(newSeriesListCommand(ctx), newSeriesShowCommand(ctx))
	return cmd
}

func newSeriesListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <library-id>",
		Short: "List the series of a library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid library id %q", args[0])
			}
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			series, err := store.New(app.DB()).ListSeriesIndex(id)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(series))
			for _, s := range series {
				rows = append(rows, []string{
					strconv.FormatInt(s.ID, 10),
					s.Name,
					string(s.Format),
					strconv.Itoa(s.Pages),
					s.FolderPath,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Format", "Pages", "Folder"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
}

func newSeriesShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <series-id>",
		Short: "Show the volumes, chapters and files of a series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid series id %q", args[0])
			}
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			ser, err := store.New(app.DB()).GetSeries(id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s, %d pages)\n%s\n", ser.Name, ser.Format, ser.Pages, ser.FolderPath)

			var rows [][]string
			for _, v := range ser.Volumes {
				for _, c := range v.Chapters {
					for _, f := range c.Files {
						rows = append(rows, []string{v.Name, c.Range, strconv.FormatBool(c.IsSpecial), strconv.Itoa(f.Pages), f.FilePath})
					}
				}
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Volume", "Chapter", "Special", "Pages", "File"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignLeft, alignRight},
			))
			return nil
		},
	}
}
