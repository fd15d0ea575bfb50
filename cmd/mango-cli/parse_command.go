package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/vrsandeep/mango-catalog/internal/models"
	"github.com/vrsandeep/mango-catalog/internal/parser"
)

func newParseCommand() *cobra.Command {
	var root, libType string
	var legacy, asJSON bool

	cmd := &cobra.Command{
		Use:   "parse <path>...",
		Short: "Show how file paths are parsed, without touching the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := models.ParseLibraryType(libType)
			if err != nil {
				return err
			}
			profile := parser.ProfileFor(t, legacy)

			infos := make([]*parser.Info, len(args))
			for i, path := range args {
				r := root
				if r == "" {
					r = filepath.Dir(path)
				}
				infos[i] = profile.Parse(path, r)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}
			fmt.Fprintln(out, renderParseTable(args, infos))
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "Library root the paths live under (default: each path's directory)")
	cmd.Flags().StringVarP(&libType, "type", "t", string(models.LibraryManga), "Library type: manga, comic, book or webtoon")
	cmd.Flags().BoolVar(&legacy, "legacy", false, "Use the legacy \"0\" sentinels")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func renderParseTable(paths []string, infos []*parser.Info) string {
	headers := []string{"File", "Series", "Volume", "Chapter", "Edition", "Special", "Format"}
	rows := make([][]string, 0, len(infos))
	for i, info := range infos {
		if info == nil {
			rows = append(rows, []string{filepath.Base(paths[i]), "(not catalogued)"})
			continue
		}
		rows = append(rows, []string{
			info.Filename,
			info.Series,
			info.Volume.Raw,
			info.Chapter.Raw,
			info.Edition,
			strconv.FormatBool(info.IsSpecial),
			string(info.Format),
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignRight, alignRight})
}
