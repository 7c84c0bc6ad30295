package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	dexy "github.com/evijayan2/dexy/src"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newDupsCommand(cfg *dexy.Config, globals *globalFlags) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "dups [scan.json]",
		Short: "List files that share the same content",
		Long: `Dups prints every group of files with identical hashes, largest reclaimable
size first. The scan is read from a JSON file written by "dexy scan", or from
a badger index with --db and --name.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.IndexDB != "" && list {
				return listScans(cmd.OutOrStdout(), cfg.IndexDB)
			}

			result, err := loadScan(cfg, args)
			if err != nil {
				return err
			}
			printDuplicates(cmd.OutOrStdout(), dexy.Duplicates(result))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.IndexDB, "db", cfg.IndexDB, "Read the scan from this badger index directory")
	flags.StringVarP(&cfg.Name, "name", "n", cfg.Name, "Name of the scan to read from the index")
	flags.BoolVar(&list, "list", false, "List the scans stored in the index")

	return cmd
}

func loadScan(cfg *dexy.Config, args []string) (dexy.ScanResult, error) {
	switch {
	case len(args) == 1:
		return dexy.LoadResult(args[0])
	case cfg.IndexDB != "":
		store, err := dexy.OpenIndexStore(cfg.IndexDB)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return store.LoadScan(cfg.Name)
	default:
		return nil, errors.New("either a scan file or --db is required")
	}
}

func listScans(w io.Writer, path string) error {
	store, err := dexy.OpenIndexStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	names, err := store.Scans()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(w, name)
	}
	return nil
}

func printDuplicates(w io.Writer, groups []dexy.DuplicateGroup) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "No duplicates found")
		return
	}

	header := color.New(color.FgCyan)
	for _, group := range groups {
		if group.Reclaimable > 0 {
			header.Fprintf(w, "%s  %d files, %s reclaimable\n", group.Hash, len(group.Files), humanize.IBytes(uint64(group.Reclaimable)))
		} else {
			header.Fprintf(w, "%s  %d files\n", group.Hash, len(group.Files))
		}
		for _, f := range group.Files {
			fmt.Fprintf(w, "  %s\n", f.Path)
		}
	}
}
