package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/vrsandeep/mango-catalog/internal/library"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var all, asJSON bool
	var seriesID int64

	cmd := &cobra.Command{
		Use:   "scan [library-id]",
		Short: "Reconcile a library, a single series or every library with disk",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modes := 0
			if all {
				modes++
			}
			if seriesID > 0 {
				modes++
			}
			if len(args) == 1 {
				modes++
			}
			if modes != 1 {
				return errors.New("specify exactly one of a library id, --series or --all")
			}

			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			scanner := app.Scanner()

			var results []*library.ScanResult
			switch {
			case all:
				results, err = scanner.ScanAll(cmd.Context())
			case seriesID > 0:
				var res *library.ScanResult
				res, err = scanner.ScanSeries(cmd.Context(), seriesID)
				if res != nil {
					results = append(results, res)
				}
			default:
				id, perr := strconv.ParseInt(args[0], 10, 64)
				if perr != nil {
					return fmt.Errorf("invalid library id %q", args[0])
				}
				var res *library.ScanResult
				res, err = scanner.ScanLibrary(cmd.Context(), id)
				if res != nil {
					results = append(results, res)
				}
			}

			if perr := printScanResults(cmd.OutOrStdout(), results, asJSON); perr != nil {
				return perr
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Scan every library")
	cmd.Flags().Int64Var(&seriesID, "series", 0, "Scan only the folders of this series")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func printScanResults(w io.Writer, results []*library.ScanResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	if len(results) == 0 {
		return nil
	}

	headers := []string{"Library", "Files", "Unparsed", "Created", "Updated", "Removed", "Duration"}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			strconv.FormatInt(r.LibraryID, 10),
			strconv.Itoa(r.Files),
			strconv.Itoa(r.Unparsed),
			strconv.Itoa(r.Created),
			strconv.Itoa(r.Updated),
			strconv.Itoa(r.Removed),
			r.Finished.Sub(r.Started).Round(time.Millisecond).String(),
		})
	}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight}
	fmt.Fprintln(w, renderTable(headers, rows, aligns))

	for _, r := range results {
		for _, c := range r.Conflicts {
			fmt.Fprintf(w, "conflict: %s\n", c)
		}
		if len(r.Unresolved) > 0 {
			fmt.Fprintf(w, "unresolved: %s\n", strings.Join(r.Unresolved, ", "))
		}
		for _, e := range r.Errors {
			fmt.Fprintf(w, "error: %s\n", e)
		}
	}
	return nil
}
